package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound   ErrorCode = "account_not_found"
	DuplicateAccount  ErrorCode = "duplicate_account"
	InvalidAmount     ErrorCode = "invalid_amount"
	LimitExceeded     ErrorCode = "limit_exceeded"
	InsufficientFunds ErrorCode = "insufficient_funds"
	FloorViolation    ErrorCode = "floor_violation"
	InvalidInput      ErrorCode = "invalid_input"
	InternalError     ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps an error code to the status the HTTP adapter responds with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound:
		return http.StatusNotFound
	case DuplicateAccount:
		return http.StatusConflict
	case InvalidAmount, InvalidInput:
		return http.StatusBadRequest
	case LimitExceeded, InsufficientFunds, FloorViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrAccountNotFound   = NewAppError(AccountNotFound, "account not found")
	ErrDuplicateAccount  = NewAppError(DuplicateAccount, "account already exists")
	ErrLimitExceeded     = NewAppError(LimitExceeded, "charge would exceed the maximum balance")
	ErrInsufficientFunds = NewAppError(InsufficientFunds, "balance is insufficient for the requested amount")
	ErrFloorViolation    = NewAppError(FloorViolation, "use would leave the balance below the minimum")
)
