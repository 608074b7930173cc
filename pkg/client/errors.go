package client

import (
	"fmt"
	"net/http"
)

// TransportError means no usable response was obtained: the connection failed,
// timed out, or the body could not be read in full.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError is returned when the server answered with a status
// other than 200 or 206.
type UnexpectedStatusError struct {
	StatusCode int
	Mode       StreamingMode
	URL        string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) for %s mode request %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.Mode, e.URL)
}
