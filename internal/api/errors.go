package api

import (
	"errors"
	"fmt"
)

// OpError is the only error kind the client returns: the operation failed,
// either in transport (StatusCode == 0) or with a non-2xx status.
type OpError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *OpError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": failed"
}

func (e *OpError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.StatusCode
	}
	return 0
}
