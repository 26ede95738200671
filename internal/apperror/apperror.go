package apperror

import (
	"fmt"
	"net/http"
)

// Códigos estables expuestos al cliente. El mapeo código→status es fijo
// y no varía por endpoint.
const (
	CodeMissingToken       = "MISSING_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeTaskNotFound       = "TASK_NOT_FOUND"
	CodeEmailExists        = "EMAIL_ALREADY_EXISTS"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
)

// FieldError describe una falla de validación a nivel de campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error es la falla estructurada que cruza el límite del transporte.
// Cualquier error que no tenga esta forma se traduce a INTERNAL_SERVER_ERROR
// sin filtrar detalle interno.
type Error struct {
	Status  int
	Code    string
	Message string
	Details []FieldError
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func MissingToken() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeMissingToken,
		Message: "Authentication required. Please sign in.",
	}
}

func TokenExpired() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeTokenExpired,
		Message: "Your session has expired. Please sign in again.",
	}
}

func InvalidToken() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidToken,
		Message: "Invalid authentication token. Please sign in again.",
	}
}

func InvalidCredentials() *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidCredentials,
		Message: "Invalid email or password",
	}
}

func Forbidden() *Error {
	return &Error{
		Status:  http.StatusForbidden,
		Code:    CodeForbidden,
		Message: "You don't have permission to access this task",
	}
}

func UserNotFound() *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodeUserNotFound,
		Message: "User not found",
	}
}

func TaskNotFound(id int64) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodeTaskNotFound,
		Message: fmt.Sprintf("Task with ID %d not found", id),
	}
}

func EmailAlreadyExists() *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeEmailExists,
		Message: "An account with this email already exists",
	}
}

func Validation(details []FieldError) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidation,
		Message: "Invalid input data",
		Details: details,
	}
}

func TooManyRequests() *Error {
	return &Error{
		Status:  http.StatusTooManyRequests,
		Code:    CodeTooManyRequests,
		Message: "Too many attempts. Try again later.",
	}
}

func Internal() *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
	}
}
