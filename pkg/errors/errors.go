package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Виды ошибок. Конкретные ошибки сервисов оборачивают один из них,
// поэтому проверка делается через errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrInternal        = errors.New("internal server error")
)

// Error - ошибка уровня сервиса: вид, сообщение для клиента и исходная причина (только для логов).
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(ErrValidation, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return newError(ErrUnauthenticated, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(ErrForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(ErrConflict, format, args...)
}

func RateLimited(format string, args ...interface{}) *Error {
	return newError(ErrRateLimited, format, args...)
}

// Internal оборачивает сбой хранилища или внешнего коллаборатора.
// Клиент видит только общее сообщение.
func Internal(cause error, format string, args ...interface{}) *Error {
	e := newError(ErrInternal, format, args...)
	e.Cause = cause
	return e
}

// APIError - тело ответа об ошибке: { message, status }.
type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, status int) *APIError {
	return &APIError{
		Message: message,
		Status:  status,
	}
}

func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ToAPIError строит тело ответа. Для внутренних ошибок причина наружу не уходит.
func ToAPIError(err error) *APIError {
	status := HTTPStatusFromError(err)
	if status == http.StatusInternalServerError {
		return NewAPIError(ErrInternal.Error(), status)
	}

	var e *Error
	if errors.As(err, &e) {
		return NewAPIError(e.Message, status)
	}
	return NewAPIError(err.Error(), status)
}
