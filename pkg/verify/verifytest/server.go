// Package verifytest provides an in-process media endpoint for exercising
// the verifier. Static requests are served with http.ServeContent; live
// requests are streamed in flushed chunks without a Content-Length, the way
// a transcoding server answers, and can be made to misbehave on purpose.
package verifytest

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"time"

	"github.com/azhovan/rangeprobe/pkg/client"
	"github.com/azhovan/rangeprobe/pkg/verify"
	"github.com/gorilla/mux"
)

const defaultChunkSize = 32 * 1024

// Request is one request the server received.
type Request struct {
	Resource string
	Live     bool
	Range    string
}

// LiveTransform rewrites the bytes a live request is about to send.
// start is the absolute offset of body within the resource.
type LiveTransform func(start int64, body []byte) []byte

// Server is a running test endpoint. Close it when done.
type Server struct {
	*httptest.Server

	resources map[string][]byte
	transform LiveTransform
	status    int
	chunkSize int

	mu       sync.Mutex
	requests []Request
}

// Option configures a Server.
type Option func(*Server)

// WithLiveTransform makes live responses diverge from static ones.
func WithLiveTransform(fn LiveTransform) Option {
	return func(s *Server) {
		s.transform = fn
	}
}

// WithLiveStatus makes every live request fail with the given status.
func WithLiveStatus(code int) Option {
	return func(s *Server) {
		s.status = code
	}
}

// WithChunkSize sets how many bytes are written between flushes of a live response.
func WithChunkSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewServer starts a server for the given resources, keyed by media_file value.
func NewServer(resources map[string][]byte, options ...Option) *Server {
	s := &Server{
		resources: resources,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range options {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.serveMedia).
		Methods(http.MethodGet, http.MethodHead).
		Queries(client.MediaFileParam, "{media_file}")
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid file", http.StatusBadRequest)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) serveMedia(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get(client.MediaFileParam)
	live := q.Get(client.LiveStreamingParam) == "true"

	s.mu.Lock()
	s.requests = append(s.requests, Request{Resource: name, Live: live, Range: r.Header.Get("Range")})
	s.mu.Unlock()

	data, ok := s.resources[name]
	if !ok {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}

	if !live {
		http.ServeContent(w, r, path.Base(name), time.Time{}, bytes.NewReader(data))
		return
	}
	s.serveLive(w, r, data)
}

func (s *Server) serveLive(w http.ResponseWriter, r *http.Request, data []byte) {
	if s.status != 0 {
		http.Error(w, http.StatusText(s.status), s.status)
		return
	}

	size := int64(len(data))
	start, end := int64(0), size-1
	status := http.StatusOK

	if h := r.Header.Get("Range"); h != "" {
		br, err := verify.ParseRange(h)
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
			return
		}

		switch {
		case br.SuffixLength > 0:
			start = size - br.SuffixLength
			if start < 0 {
				start = 0
			}
		default:
			start = br.Start
			if br.End >= 0 && br.End < end {
				end = br.End
			}
		}

		if start >= size {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
			return
		}

		status = http.StatusPartialContent
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	}

	body := data[start : end+1]
	if s.transform != nil {
		body = s.transform(start, bytes.Clone(body))
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}

	flusher, _ := w.(http.Flusher)
	for i := 0; i < len(body); i += s.chunkSize {
		j := i + s.chunkSize
		if j > len(body) {
			j = len(body)
		}
		if _, err := w.Write(body[i:j]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Pattern returns n deterministic, non-repeating-looking bytes.
func Pattern(n int) []byte {
	b := make([]byte, n)
	x := uint32(2463534242)
	for i := range b {
		x = x*1664525 + 1013904223
		b[i] = byte(x >> 24)
	}
	return b
}
