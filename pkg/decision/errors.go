package decision

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable means the decision service could not be reached
	// or answered with a server error.
	ErrServiceUnavailable = errors.New("decision service unavailable")
	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout = errors.New("decision service timeout")
	// ErrMalformedResponse means a 2xx body could not be read as a Decision.
	ErrMalformedResponse = errors.New("malformed decision response")
)

// ApplicationError is a 4xx answer from the decision service.
type ApplicationError struct {
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("decision service rejected request: status %d", e.StatusCode)
	}
	return fmt.Sprintf("decision service rejected request: status %d: %s", e.StatusCode, e.Message)
}

func IsApplicationError(err error) bool {
	var appErr *ApplicationError
	return errors.As(err, &appErr)
}
