package apperr

import (
	"errors"

	"github.com/tmdiallo/stockalerte/pkg/zerror"
)

const (
	InvalidProductCode   = "PRODUCT_INVALID"
	DuplicateKeyCode     = "PRODUCT_DUPLICATE"
	NotFoundCode         = "PRODUCT_NOT_FOUND"
	StoreUnavailableCode = "STORE_UNAVAILABLE"
	NetworkErrorCode     = "NETWORK_ERROR"
	RemoteRejectedCode   = "REMOTE_REJECTED"
	RestoreFailedCode    = "RESTORE_FAILED"
)

var (
	// ErrInvalidProduct rejects malformed product input before any write.
	ErrInvalidProduct = zerror.NewValidationFailed(InvalidProductCode, "invalid product")

	// ErrDuplicateKey signals an id collision on add.
	ErrDuplicateKey = zerror.NewConflict(DuplicateKeyCode, "product id already exists")

	// ErrNotFound signals a mutation targeting a missing id.
	ErrNotFound = zerror.NewNotFound(NotFoundCode, "product not found")

	// ErrStoreUnavailable signals that the local store cannot be opened or written.
	ErrStoreUnavailable = zerror.NewServiceUnavailable(StoreUnavailableCode, "local store unavailable")

	// ErrNetwork signals that the remote mirror is unreachable. It is absorbed
	// by the sync queue and never surfaced from a mutation.
	ErrNetwork = zerror.NewBadGateway(NetworkErrorCode, "remote mirror unreachable")

	// ErrRemoteRejected signals a remote constraint violation.
	ErrRemoteRejected = zerror.NewUnprocessableEntity(RemoteRejectedCode, "remote mirror rejected operation")

	// ErrRestoreFailed signals a fetch failure during restore.
	ErrRestoreFailed = zerror.NewInternalServerError(RestoreFailedCode, "restore from remote mirror failed")
)

// HasCode reports whether err carries a ZError with the given code.
func HasCode(err error, code string) bool {
	var zErr zerror.ZError
	if !errors.As(err, &zErr) {
		return false
	}
	return zErr.Code() == code
}
