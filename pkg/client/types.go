package client

import (
	"net/http"
	"strings"
)

// StreamingMode tells the server how to source the resource.
type StreamingMode int

const (
	// Static asks the server to read the resource as a plain file.
	Static StreamingMode = iota
	// Live asks the server to serve the resource as an on-the-fly stream.
	Live
)

func (m StreamingMode) String() string {
	if m == Live {
		return "live"
	}
	return "static"
}

// QueryValue is the live_streaming query parameter value for the mode.
func (m StreamingMode) QueryValue() string {
	if m == Live {
		return "true"
	}
	return "false"
}

// RequestSpec describes a single request. An empty Range sends no Range header.
type RequestSpec struct {
	Resource string
	Mode     StreamingMode
	Range    string
}

// WithMode returns a copy of the spec with only the streaming mode changed.
func (s RequestSpec) WithMode(mode StreamingMode) RequestSpec {
	s.Mode = mode
	return s
}

// ResponseRecord is a fully read response. It belongs to the caller of Fetch.
type ResponseRecord struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Headers flattens the response header, joining repeated values with ", ".
func (r *ResponseRecord) Headers() map[string]string {
	out := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
