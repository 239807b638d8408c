package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport covers network failures, timeouts and cancellation.
	ErrTransport = errors.New("remote transport failure")
	// ErrStatus is matched by every *StatusError.
	ErrStatus = errors.New("remote returned non-ok status")
	// ErrNotFound is matched by a 404 *StatusError and by local backends.
	ErrNotFound = errors.New("record not found")
	// ErrMalformed means the response body did not match the expected schema.
	ErrMalformed = errors.New("malformed remote response")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrStatus:
		return true
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

// Reason maps an error to a short category for logs and user messages.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrTransport):
		return "transport"
	}
	return "internal"
}
