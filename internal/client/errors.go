package client

import (
	"errors"
	"fmt"
)

// ErrUnavailable wraps transport failures: the service could not be reached
// or the connection broke before a response arrived.
var ErrUnavailable = errors.New("directory service unavailable")

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("directory service returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("directory service returned %d", e.StatusCode)
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
