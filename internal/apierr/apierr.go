package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidInput   = "invalid_input"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeUpstreamFailed = "upstream_failed"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Invalid(format string, args ...any) *Error {
	return New(http.StatusUnprocessableEntity, CodeInvalidInput, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, CodeConflict, fmt.Errorf(format, args...))
}

func Upstream(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstreamFailed, err)
}

// StatusOf maps any error to an HTTP status, defaulting to 500.
func StatusOf(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ae.Code
	}
	return http.StatusInternalServerError, ""
}

func IsConflict(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == CodeConflict
}

func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == CodeNotFound
}
