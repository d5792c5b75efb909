package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ewmaAlpha = 0.2

	// maxBodyBytes bounds how much of a backend response is buffered.
	maxBodyBytes = 10 << 20

	RequestIDHeader = "X-Request-ID"
)

// Response is a successful backend reply. Body is the backend's JSON document,
// uninterpreted.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Backend represents the upstream service with its observed health and
// response time.
type Backend struct {
	url     *url.URL
	client  *http.Client
	timeout time.Duration

	mutex            sync.Mutex
	isHealthy        bool
	ewmaResponseTime time.Duration
	hasEWMA          bool
}

type requestIDKey struct{}

// WithRequestID returns a context whose backend calls carry id in the
// X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// New creates a Backend for the given base URL. Every call is bounded by
// timeout. The backend starts in a healthy state.
func New(u *url.URL, timeout time.Duration) *Backend {
	return &Backend{
		url:       u,
		client:    &http.Client{},
		timeout:   timeout,
		isHealthy: true,
	}
}

// URL returns the backend base URL.
func (b *Backend) URL() *url.URL {
	return b.url
}

// Timeout returns the per-call timeout.
func (b *Backend) Timeout() time.Duration {
	return b.timeout
}

// Get issues GET {base}{path}.
func (b *Backend) Get(ctx context.Context, path string) (*Response, error) {
	return b.Do(ctx, http.MethodGet, path, nil)
}

// Post issues POST {base}{path} with body as the JSON payload. A nil body or
// JSON null is sent as a POST without a body.
func (b *Backend) Post(ctx context.Context, path string, body json.RawMessage) (*Response, error) {
	if isNull(body) {
		body = nil
	}
	return b.Do(ctx, http.MethodPost, path, body)
}

func isNull(body json.RawMessage) bool {
	return len(body) == 0 || string(bytes.TrimSpace(body)) == "null"
}

// Do performs one call against the backend. Any failure is returned as an
// *UnreachableError; on success the body is guaranteed to be valid JSON.
func (b *Backend) Do(ctx context.Context, method, path string, body json.RawMessage) (*Response, error) {
	target := b.resolve(path)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &UnreachableError{Method: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	start := time.Now()
	res, err := b.client.Do(req)
	if err != nil {
		return nil, &UnreachableError{Method: method, URL: target, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	b.RecordResponse(time.Since(start))
	if err != nil {
		return nil, &UnreachableError{Method: method, URL: target, Err: err}
	}

	if res.StatusCode >= http.StatusBadRequest {
		return nil, &UnreachableError{
			Method: method,
			URL:    target,
			Err: &StatusError{
				StatusCode: res.StatusCode,
				Reason:     reasonPhrase(res),
				URL:        target,
			},
		}
	}

	var doc json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &UnreachableError{
			Method: method,
			URL:    target,
			Err:    fmt.Errorf("invalid JSON in response: %w", err),
		}
	}

	return &Response{StatusCode: res.StatusCode, Body: doc}, nil
}

// Probe checks the backend's own /health endpoint. Any status other than 200
// is reported as an error.
func (b *Backend) Probe(ctx context.Context) error {
	target := b.resolve("/health")

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &UnreachableError{Method: http.MethodGet, URL: target, Err: err}
	}

	res, err := b.client.Do(req)
	if err != nil {
		return &UnreachableError{Method: http.MethodGet, URL: target, Err: err}
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyBytes))

	if res.StatusCode != http.StatusOK {
		return &UnreachableError{
			Method: http.MethodGet,
			URL:    target,
			Err:    &StatusError{StatusCode: res.StatusCode, Reason: reasonPhrase(res), URL: target},
		}
	}

	return nil
}

// IsHealthy returns the health observed by the last probe.
func (b *Backend) IsHealthy() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.isHealthy
}

// SetHealthy updates the backend's health status.
// Returns true if the status changed, false if it was already in that state.
func (b *Backend) SetHealthy(healthy bool) (changed bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.isHealthy == healthy {
		return false
	}

	b.isHealthy = healthy
	return true
}

// RecordResponse folds duration into the exponentially weighted moving
// average response time.
func (b *Backend) RecordResponse(duration time.Duration) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.hasEWMA {
		b.ewmaResponseTime = duration
		b.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	b.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(b.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the moving average response time, or 0 before the first
// completed call.
func (b *Backend) EWMATime() time.Duration {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.hasEWMA {
		return 0
	}

	return b.ewmaResponseTime
}

func (b *Backend) resolve(path string) string {
	return strings.TrimRight(b.url.String(), "/") + "/" + strings.TrimLeft(path, "/")
}

func reasonPhrase(res *http.Response) string {
	reason := strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode))
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = http.StatusText(res.StatusCode)
	}
	return reason
}
