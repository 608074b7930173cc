// Package client issues the ranged GET requests the verifier compares.
// One Fetch is one round-trip: the body is read in full before it returns.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/azhovan/rangeprobe/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	// MediaFileParam is the query parameter naming the server-side resource.
	MediaFileParam = "media_file"

	// LiveStreamingParam is the query parameter carrying the streaming mode.
	LiveStreamingParam = "live_streaming"

	// DefaultTimeout bounds a single request including the body read.
	DefaultTimeout = 30 * time.Second
)

type Client struct {
	// url is not meant to be modified directly, hence unexported.
	url        url.URL
	httpClient *http.Client

	timeout     time.Duration
	limiter     *rate.Limiter
	maxBodySize int64
	auth        AuthStrategy
	observer    BodyObserver

	// an optional logger, can be nil
	Logger *slog.Logger
}

var (
	ErrInvalidURL   = errors.New("the client url is empty or invalid")
	ErrBodyTooLarge = errors.New("response body exceeds the configured maximum size")
)

// NewClient creates a new Client for the endpoint at serverURL.
// If serverURL is empty or not an absolute http(s) URL, NewClient returns ErrInvalidURL.
func NewClient(serverURL string, options ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, ErrInvalidURL
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	client := &Client{
		url:        *u,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		Logger:     logger.DefaultLogger(),
	}

	for _, opt := range options {
		opt(client)
	}

	// copy, so the timeout never leaks into a shared client such as http.DefaultClient
	if client.timeout > 0 {
		hc := *client.httpClient
		hc.Timeout = client.timeout
		client.httpClient = &hc
	}
	if client.Logger == nil {
		client.Logger = logger.Discard()
	}

	return client, nil
}

// Option represents a function that configures a Client.
//
// Example usage:
//
//	```go
//	client, err := NewClient("http://localhost:34455", WithTimeout(10*time.Second))
//	```
type Option func(*Client)

// WithLogger sets the Logger field of the Client to the given logger instance.
func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		client.Logger = logger
	}
}

// WithHTTPClient allows the user to provide a custom *http.Client.
// The configured timeout is still applied on a copy of it.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

// WithTimeout sets the per-request timeout. Zero keeps the http.Client's own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		client.timeout = timeout
	}
}

// WithRateLimit paces requests to at most rps per second with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(client *Client) {
		if rps <= 0 {
			client.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxBodySize caps how many body bytes a single Fetch reads. Zero means unlimited.
func WithMaxBodySize(n int64) Option {
	return func(client *Client) {
		client.maxBodySize = n
	}
}

// WithAuth sets the authentication method applied to every request.
func WithAuth(auth AuthStrategy) Option {
	return func(client *Client) {
		client.auth = auth
	}
}

// WithBodyObserver installs an observer that sees each body while it is read.
func WithBodyObserver(observer BodyObserver) Option {
	return func(client *Client) {
		client.observer = observer
	}
}

// BodyObserver wraps a response body while it is read, e.g. to render progress.
// contentLength is -1 when the server did not announce one.
type BodyObserver interface {
	Observe(spec RequestSpec, contentLength int64, body io.Reader) io.Reader
	Done(spec RequestSpec, n int64)
}

// BaseURL returns the endpoint the client targets.
func (c *Client) BaseURL() string {
	return c.url.String()
}

// Timeout returns the per-request timeout in effect, zero meaning none.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// RequestURL returns the full URL, query included, that Fetch uses for spec.
func (c *Client) RequestURL(spec RequestSpec) string {
	u := c.url
	q := u.Query()
	q.Set(MediaFileParam, spec.Resource)
	q.Set(LiveStreamingParam, spec.Mode.QueryValue())
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch issues one GET for spec and reads the whole body.
//
// Connection, timeout and body read failures are returned as *TransportError
// with a nil record. A status outside 200/206 returns the record together with
// an *UnexpectedStatusError, so callers can still inspect what was served.
func (c *Client) Fetch(ctx context.Context, spec RequestSpec) (*ResponseRecord, error) {
	target := c.RequestURL(spec)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: "wait", URL: target, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if spec.Range != "" {
		req.Header.Set("Range", spec.Range)
	}

	// apply auth method if it's been set
	if c.auth != nil {
		c.auth.Apply(req)
	}

	c.Logger.Debug("sending request",
		slog.Group("req",
			slog.String("url", target),
			slog.String("mode", spec.Mode.String()),
			slog.String("range", spec.Range),
		))

	started := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.Logger.Debug("request failed",
			slog.String("error", err.Error()),
			slog.Group("req", slog.String("method", req.Method), slog.String("url", target)),
		)
		return nil, &TransportError{Op: "request", URL: target, Err: err}
	}
	defer res.Body.Close() //nolint:errcheck

	body, err := c.readBody(spec, res)
	if err != nil {
		c.Logger.Debug("reading body failed",
			slog.String("error", err.Error()),
			slog.Int("read", len(body)),
		)
		return nil, &TransportError{Op: "read body", URL: target, Err: err}
	}

	record := &ResponseRecord{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       body,
	}
	// net/http moves Transfer-Encoding out of the header map
	if len(res.TransferEncoding) > 0 {
		record.Header["Transfer-Encoding"] = res.TransferEncoding
	}

	c.Logger.Debug("response received",
		slog.Group("res",
			slog.Int("status", res.StatusCode),
			slog.Int("length", len(body)),
			slog.String("content_range", res.Header.Get("Content-Range")),
			slog.Duration("elapsed", time.Since(started)),
		))

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return record, &UnexpectedStatusError{StatusCode: res.StatusCode, Mode: spec.Mode, URL: target}
	}

	return record, nil
}

func (c *Client) readBody(spec RequestSpec, res *http.Response) ([]byte, error) {
	var src io.Reader = res.Body
	if c.observer != nil {
		src = c.observer.Observe(spec, res.ContentLength, src)
	}
	if c.maxBodySize > 0 {
		src = io.LimitReader(src, c.maxBodySize+1)
	}

	buf := &bytes.Buffer{}
	if res.ContentLength > 0 && (c.maxBodySize == 0 || res.ContentLength <= c.maxBodySize) {
		buf.Grow(int(res.ContentLength))
	}

	n, err := buf.ReadFrom(src)
	if c.observer != nil {
		c.observer.Done(spec, n)
	}
	if err != nil {
		return buf.Bytes(), err
	}
	if c.maxBodySize > 0 && n > c.maxBodySize {
		return buf.Bytes()[:c.maxBodySize], ErrBodyTooLarge
	}

	return buf.Bytes(), nil
}
