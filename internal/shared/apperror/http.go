package apperror

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"net/http"
)

// HTTPError is the transport view of an error.
type HTTPError struct {
	Status    int
	Code      string
	Message   string
	Details   any
	Retryable bool
}

// ToHTTP maps any error to a response. Unknown errors become 500 and their
// text is not leaked; connectivity failures become a retryable 503.
func ToHTTP(err error) HTTPError {
	if err == nil {
		return HTTPError{Status: http.StatusOK}
	}

	if IsRetryable(err) {
		return HTTPError{
			Status:    ErrStoreUnavailable.HTTPStatus,
			Code:      ErrStoreUnavailable.Code,
			Message:   ErrStoreUnavailable.Message,
			Retryable: true,
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return HTTPError{
			Status:  appErr.HTTPStatus,
			Code:    appErr.Code,
			Message: appErr.Message,
		}
	}

	return HTTPError{
		Status:  ErrInternal.HTTPStatus,
		Code:    ErrInternal.Code,
		Message: ErrInternal.Message,
	}
}

// IsRetryable reports whether err comes from the store or network being
// unreachable rather than from business rules.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
