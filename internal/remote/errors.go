package remote

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tmdiallo/stockalerte/internal/apperr"
)

// Postgres 23505 is unique_violation.
const pgUniqueViolation = "23505"

// classify maps a driver error onto the core taxonomy: constraint violations
// reported by the backend become RemoteRejected, everything else (refused
// connections, timeouts, DNS failures) becomes NetworkError.
func classify(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "remote call failed")

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return apperr.ErrRemoteRejected.WrapParent(err)
	}
	return apperr.ErrNetwork.WrapParent(err)
}

func okStatus() (codes.Code, string) {
	return codes.Ok, ""
}

// IsDuplicate reports whether err is a remote rejection with a uniqueness
// constraint signature. The replicator treats these as already-applied.
func IsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsNetwork reports whether err was classified as the mirror being unreachable.
func IsNetwork(err error) bool {
	return apperr.HasCode(err, apperr.NetworkErrorCode)
}
