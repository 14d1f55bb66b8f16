package accounterrors

import (
	"go-leave/internal/shared/apperror"
	"net/http"
)

var (
	ErrAccountNotFound = apperror.New(
		apperror.CodeNotFound,
		"Account not found",
		http.StatusNotFound,
	)
	ErrUsernameTaken = apperror.New(
		apperror.CodeConflict,
		"Username is already taken",
		http.StatusConflict,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidState,
		"Remaining leave balance is insufficient",
		http.StatusConflict,
	)
	ErrInvalidAdjustment = apperror.New(
		apperror.CodeInvalidInput,
		"Adjustment must be a non-zero multiple of 0.5 days",
		http.StatusBadRequest,
	)
	ErrInvalidBalance = apperror.New(
		apperror.CodeInvalidInput,
		"Remaining days must be a non-negative multiple of 0.5",
		http.StatusBadRequest,
	)
	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"Role must be employee or admin",
		http.StatusBadRequest,
	)
	ErrInvalidDOB = apperror.New(
		apperror.CodeInvalidInput,
		"Date of birth must use YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidProfile = apperror.New(
		apperror.CodeInvalidInput,
		"Full name cannot be blank",
		http.StatusBadRequest,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"Only administrators can manage accounts",
		http.StatusForbidden,
	)
)
