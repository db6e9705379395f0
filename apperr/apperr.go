package apperr

import (
	"errors"
	"net/http"
)

// Error carries a machine-readable code, a human-readable message and the
// HTTP status the outer handler boundary should respond with.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func NotFound(code, message string) *Error {
	return New(code, message, http.StatusNotFound)
}

func BadRequest(code, message string) *Error {
	return New(code, message, http.StatusBadRequest)
}

func Forbidden(code, message string) *Error {
	return New(code, message, http.StatusForbidden)
}

// From converts any error into an *Error. Unknown errors map to a generic
// internal error so details never leak to the client.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New("internal_error", "Something went wrong. Please try again.", http.StatusInternalServerError)
}
