package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tmdiallo/stockalerte/pkg/correlationid"
)

// CorrelationID propagates the caller's correlation ID, minting one when the
// request carries none, and echoes it on the response.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlationid.Header)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(correlationid.Header, id)
			r = r.WithContext(correlationid.NewContext(r.Context(), id))

			next.ServeHTTP(w, r)
		})
	}
}
