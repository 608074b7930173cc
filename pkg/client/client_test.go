package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/azhovan/rangeprobe/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var content = []byte(strings.Repeat("0123456789abcdef", 64))

func newContentServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get(MediaFileParam) != "/media/sample.mp4" {
			http.Error(w, "Invalid file", http.StatusBadRequest)
			return
		}
		w.Header().Set("X-Live", r.URL.Query().Get(LiveStreamingParam))
		http.ServeContent(w, r, "sample.mp4", time.Time{}, bytes.NewReader(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string, options ...Option) *Client {
	t.Helper()
	c, err := NewClient(url, append([]Option{WithLogger(logger.Discard())}, options...)...)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "empty", url: "", wantErr: ErrInvalidURL},
		{name: "relative", url: "/only/a/path", wantErr: ErrInvalidURL},
		{name: "unsupported_scheme", url: "ftp://localhost:21", wantErr: ErrInvalidURL},
		{name: "valid", url: "http://localhost:34455"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.url)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.url, c.BaseURL())
			}
		})
	}
}

func TestNewClient_TimeoutDoesNotLeak(t *testing.T) {
	c := newTestClient(t, "http://localhost:34455", WithTimeout(time.Second))
	assert.Equal(t, time.Duration(0), http.DefaultClient.Timeout)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestClient_Timeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, newTestClient(t, "http://localhost:34455").Timeout())
	assert.Equal(t, time.Second, newTestClient(t, "http://localhost:34455", WithTimeout(time.Second)).Timeout())
}

func TestClient_RequestURL(t *testing.T) {
	c := newTestClient(t, "http://localhost:34455")
	spec := RequestSpec{Resource: "/home/media/jellyfish.mp4", Mode: Live}

	got := c.RequestURL(spec)
	assert.Equal(t, "http://localhost:34455?live_streaming=true&media_file=%2Fhome%2Fmedia%2Fjellyfish.mp4", got)

	got = c.RequestURL(spec.WithMode(Static))
	assert.Contains(t, got, "live_streaming=false")
}

func TestClient_Fetch(t *testing.T) {
	srv := newContentServer(t)
	c := newTestClient(t, srv.URL)

	t.Run("full_body", func(t *testing.T) {
		rec, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Mode: Static, Range: "bytes=0-"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusPartialContent, rec.StatusCode)
		assert.Equal(t, content, rec.Body)
		assert.Equal(t, "false", rec.Headers()["X-Live"])
	})

	t.Run("offset", func(t *testing.T) {
		rec, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Mode: Live, Range: "bytes=16-31"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusPartialContent, rec.StatusCode)
		assert.Equal(t, "0123456789abcdef", string(rec.Body))
		assert.Equal(t, "bytes 16-31/1024", rec.Header.Get("Content-Range"))
		assert.Equal(t, "true", rec.Header.Get("X-Live"))
	})

	t.Run("no_range", func(t *testing.T) {
		rec, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.StatusCode)
		assert.Len(t, rec.Body, len(content))
	})
}

func TestClient_Fetch_UnexpectedStatus(t *testing.T) {
	srv := newContentServer(t)
	c := newTestClient(t, srv.URL)

	rec, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Mode: Live, Range: "bytes=4096-"})

	var statusErr *UnexpectedStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, statusErr.StatusCode)
	assert.Equal(t, Live, statusErr.Mode)
	if assert.NotNil(t, rec) {
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.StatusCode)
	}

	var transportErr *TransportError
	assert.False(t, errors.As(err, &transportErr))
}

func TestClient_Fetch_TransportError(t *testing.T) {
	srv := newContentServer(t)
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	rec, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Range: "bytes=0-"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "request", transportErr.Op)
	assert.Nil(t, rec)
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4"})

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestClient_Fetch_MaxBodySize(t *testing.T) {
	srv := newContentServer(t)

	c := newTestClient(t, srv.URL, WithMaxBodySize(100))
	_, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Range: "bytes=0-"})
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	var transportErr *TransportError
	if assert.ErrorAs(t, err, &transportErr) {
		assert.Equal(t, "read body", transportErr.Op)
	}

	c = newTestClient(t, srv.URL, WithMaxBodySize(int64(len(content))))
	rec, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Range: "bytes=0-"})
	if assert.NoError(t, err) {
		assert.Len(t, rec.Body, len(content))
	}
}

func TestClient_Fetch_Auth(t *testing.T) {
	tests := []struct {
		name   string
		auth   AuthStrategy
		header string
		want   string
	}{
		{name: "bearer", auth: &BearerToken{Token: "abc"}, header: "Authorization", want: "Bearer abc"},
		{name: "api_token", auth: &APIToken{Header: "X-Api-Key", Token: "k"}, header: "X-Api-Key", want: "k"},
		{name: "basic", auth: &BasicAuth{Username: "u", Password: "p"}, header: "Authorization", want: "Basic dTpw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get(tt.header)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL, WithAuth(tt.auth))
			_, err := c.Fetch(context.Background(), RequestSpec{Resource: "x"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Fetch_RateLimit(t *testing.T) {
	srv := newContentServer(t)
	c := newTestClient(t, srv.URL, WithRateLimit(20, 1))

	started := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Range: "bytes=0-15"})
		require.NoError(t, err)
	}
	// first request uses the burst, the next two wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(started), 90*time.Millisecond)
}

func TestClient_Fetch_RateLimitCanceled(t *testing.T) {
	srv := newContentServer(t)
	c := newTestClient(t, srv.URL, WithRateLimit(0.001, 1))

	ctx := context.Background()
	_, err := c.Fetch(ctx, RequestSpec{Resource: "/media/sample.mp4", Range: "bytes=0-15"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx, RequestSpec{Resource: "/media/sample.mp4", Range: "bytes=0-15"})

	var transportErr *TransportError
	if assert.ErrorAs(t, err, &transportErr) {
		assert.Equal(t, "wait", transportErr.Op)
	}
}

type countingObserver struct {
	lengths []int64
	read    []int64
}

func (o *countingObserver) Observe(spec RequestSpec, contentLength int64, body io.Reader) io.Reader {
	o.lengths = append(o.lengths, contentLength)
	return body
}

func (o *countingObserver) Done(spec RequestSpec, n int64) {
	o.read = append(o.read, n)
}

func TestClient_Fetch_BodyObserver(t *testing.T) {
	srv := newContentServer(t)
	obs := &countingObserver{}
	c := newTestClient(t, srv.URL, WithBodyObserver(obs))

	_, err := c.Fetch(context.Background(), RequestSpec{Resource: "/media/sample.mp4", Range: "bytes=24-"})
	require.NoError(t, err)

	assert.Equal(t, []int64{1000}, obs.lengths)
	assert.Equal(t, []int64{1000}, obs.read)
}
