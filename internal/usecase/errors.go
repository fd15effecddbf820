package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrorTimeout              ErrorCode = "TIMEOUT"
	ErrorAuthFailure          ErrorCode = "AUTH_FAILURE"
	ErrorRateLimited          ErrorCode = "RATE_LIMITED"
	ErrorIncompleteGeneration ErrorCode = "INCOMPLETE_GENERATION"
	ErrorInternal             ErrorCode = "INTERNAL_ERROR"
)

// HTTPStatus is the response status for the code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrorInvalidRequest:
		return http.StatusUnprocessableEntity
	case ErrorTimeout:
		return http.StatusRequestTimeout
	case ErrorAuthFailure:
		return http.StatusUnauthorized
	case ErrorRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// Classification is the caller-visible shape of a failure.
type Classification struct {
	Status  int
	Code    ErrorCode
	Reason  string
	Error   string
	Details string
	// Type is a coarse label of the underlying error, set for ErrorInternal only.
	Type string
}

// Classify maps any error to a stable Classification. Errors that are not a
// *Error go through DefaultFailureRules before falling back to ErrorInternal.
func Classify(err error) Classification {
	var ucErr *Error
	if !errors.As(err, &ucErr) {
		ucErr = newError(DefaultFailureRules().Classify(err), "unclassified", err)
	}

	c := Classification{
		Status: ucErr.Code.HTTPStatus(),
		Code:   ucErr.Code,
		Reason: ucErr.Reason,
	}
	switch ucErr.Code {
	case ErrorInvalidRequest:
		c.Error = "Invalid request"
		c.Details = causeMessage(ucErr)
	case ErrorTimeout:
		c.Error = "Request timeout"
		c.Details = "The request took too long to complete"
	case ErrorAuthFailure:
		c.Error = "Authentication error"
		c.Details = "Invalid API key or authentication issue"
	case ErrorRateLimited:
		c.Error = "Rate limit exceeded"
		c.Details = "Too many requests, please try again later"
	case ErrorIncompleteGeneration:
		c.Error = "Generated code is incomplete"
		c.Details = causeMessage(ucErr)
		c.Type = string(ErrorIncompleteGeneration)
	default:
		c.Error = "Internal server error"
		c.Details = causeMessage(ucErr)
		c.Type = typeLabel(ucErr.Err)
	}
	return c
}

func causeMessage(e *Error) string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Err.Error()
}

// typeLabel names the innermost error type in the wrap chain.
func typeLabel(err error) string {
	if err == nil {
		return "Unknown"
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}
