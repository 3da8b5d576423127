package backend

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures where the request could not complete: dial
// errors, non-2xx responses, unreadable or malformed bodies.
var ErrTransport = errors.New("transport failure")

// StatusError is returned when the server answered with a non-"ok" envelope.
type StatusError struct {
	Endpoint string
	Status   string
	Message  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: server status %q: %s", e.Endpoint, e.Status, e.Message)
}

// IsStatusError reports whether err carries a server-side status error.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
