package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode   int          `json:"-"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	UpstreamCode string       `json:"upstream_code,omitempty"`
	Details      []FieldError `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// WithDetails adds field-level error details.
func (e *Error) WithDetails(details ...FieldError) *Error {
	e.Details = details
	return e
}

// Is reports whether target is an *Error with the same code.
// Lets callers match taxonomy classes with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// IsCode reports whether err is an *Error carrying the given code.
func IsCode(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// ToJSON converts the error to JSON bytes.
func (e *Error) ToJSON() []byte {
	errBody := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.UpstreamCode != "" {
		errBody["upstream_code"] = e.UpstreamCode
	}
	if len(e.Details) > 0 {
		errBody["details"] = e.Details
	}

	data, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   errBody,
	})
	return data
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

// ValidationError creates a 400 error with validation details.
func ValidationError(message string, details ...FieldError) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Details:    details,
	}
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

// Forbidden creates a 403 Forbidden error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// Conflict creates a 409 Conflict error.
func Conflict(message string) *Error {
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}

// ServiceUnavailable creates a 503 Service Unavailable error.
func ServiceUnavailable(message string) *Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return &Error{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    message,
	}
}

// AlreadyReserved creates a 409 error for an account another buyer has
// already claimed in the reservation store.
func AlreadyReserved(message string) *Error {
	if message == "" {
		message = "Account is already reserved or sold"
	}
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "ALREADY_RESERVED",
		Message:    message,
	}
}

// AlreadySold creates a 409 error for an account whose durable record
// already shows SOLD.
func AlreadySold(message string) *Error {
	if message == "" {
		message = "Account has already been sold"
	}
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "ALREADY_SOLD",
		Message:    message,
	}
}

// SelfPurchase creates a 403 error for a buyer attempting to purchase
// their own listed account.
func SelfPurchase(message string) *Error {
	if message == "" {
		message = "Cannot purchase your own account"
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "SELF_PURCHASE",
		Message:    message,
	}
}

// InsufficientFunds creates a 402 error when the buyer balance does not
// cover the listing price.
func InsufficientFunds(message string) *Error {
	if message == "" {
		message = "Balance is not sufficient for this purchase"
	}
	return &Error{
		StatusCode: http.StatusPaymentRequired,
		Code:       "INSUFFICIENT_FUNDS",
		Message:    message,
	}
}

// Upstream creates a 502 error for a collaborator transport or logic
// failure. The collaborator's native code and message are carried verbatim.
func Upstream(upstreamCode, message string) *Error {
	if message == "" {
		message = "Upstream service unavailable"
	}
	return &Error{
		StatusCode:   http.StatusBadGateway,
		Code:         "UPSTREAM_UNAVAILABLE",
		Message:      message,
		UpstreamCode: upstreamCode,
	}
}

// PersistenceFailure creates a 500 error for a final-commit failure after
// funds and credentials have already moved. The most severe class in the
// taxonomy: side effects exist that the durable record does not reflect.
func PersistenceFailure(message string) *Error {
	if message == "" {
		message = "Failed to persist completed purchase"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "PERSISTENCE_FAILURE",
		Message:    message,
	}
}
