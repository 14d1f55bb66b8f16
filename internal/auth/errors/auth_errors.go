package autherrors

import (
	"go-leave/internal/shared/apperror"
	"net/http"
)

const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTokenMissing       = "TOKEN_MISSING"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeSessionRevoked     = "SESSION_REVOKED"
	CodeSessionEvicted     = "SESSION_EVICTED"
	CodeSessionExpired     = "SESSION_EXPIRED"
)

// Every error below is recoverable: the client should ask the user to log
// in again.
var (
	ErrInvalidCredentials = apperror.New(
		CodeInvalidCredentials,
		"Invalid username or secret",
		http.StatusUnauthorized,
	)
	ErrTokenMissing = apperror.New(
		CodeTokenMissing,
		"Authentication token not found",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		CodeInvalidToken,
		"Authentication token is invalid",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		CodeTokenExpired,
		"Authentication token has expired",
		http.StatusUnauthorized,
	)
	ErrSessionRevoked = apperror.New(
		CodeSessionRevoked,
		"Session has been logged out",
		http.StatusUnauthorized,
	)
	ErrSessionEvicted = apperror.New(
		CodeSessionEvicted,
		"Session was ended because the account logged in on another device",
		http.StatusUnauthorized,
	)
	ErrSessionExpired = apperror.New(
		CodeSessionExpired,
		"Session has expired",
		http.StatusUnauthorized,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)
	ErrMisconfigured = apperror.New(
		apperror.CodeInternalError,
		"Authentication is not configured",
		http.StatusInternalServerError,
	)
)
