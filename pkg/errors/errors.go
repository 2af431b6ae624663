package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures coming out of the site client and the
// filesystem layer.
type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeStatus     ErrorType = "status"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error carries the URL (or path) that failed alongside the cause.
type Error struct {
	Type    ErrorType
	URL     string
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Code)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given type.
func New(typ ErrorType, url, message string, err error) *Error {
	return &Error{Type: typ, URL: url, Message: message, Err: err}
}

// Status builds an ErrorTypeStatus (or ErrorTypeNotFound for 404) error.
func Status(url string, code int) *Error {
	typ := ErrorTypeStatus
	if code == 404 {
		typ = ErrorTypeNotFound
	}
	return &Error{Type: typ, URL: url, Code: code, Message: "unexpected response status"}
}

// TypeOf returns the type of the first *Error in err's chain.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}
