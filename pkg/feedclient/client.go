// Package feedclient fetches feed pages over HTTP. Client implements
// pager.NetworkClient so it can serve as the network tier of a loader.
package feedclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/internal/telemetry"
	"github.com/marmos91/feedpager/pkg/feed"
	"github.com/marmos91/feedpager/pkg/pager"
)

// DefaultTimeout bounds a single page request.
const DefaultTimeout = 30 * time.Second

// Client is an HTTP feed client.
type Client[T any] struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

var _ pager.NetworkClient[feed.Post] = (*Client[feed.Post])(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	token      string
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithBearerToken sends token in the Authorization header.
func WithBearerToken(token string) Option {
	return func(o *options) { o.token = token }
}

// New creates a client for the feed API rooted at baseURL.
func New[T any](baseURL string, opts ...Option) *Client[T] {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client[T]{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      o.token,
	}
}

// WithToken returns a new client with the given token.
func (c *Client[T]) WithToken(token string) *Client[T] {
	return &Client[T]{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		token:      token,
	}
}

// BaseURL returns the API root.
func (c *Client[T]) BaseURL() string {
	return c.baseURL
}

// URL returns the absolute request URL for q.
func (c *Client[T]) URL(q pager.Query) string {
	path := q.String()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Execute performs a GET for q and decodes the enveloped page.
func (c *Client[T]) Execute(ctx context.Context, q pager.Query) ([]T, error) {
	url := c.URL(q)

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanFeedRequest)
	span.SetAttributes(telemetry.HTTPURL(url))
	defer span.End()

	items, status, err := c.get(ctx, url)
	if status != 0 {
		span.SetAttributes(telemetry.HTTPStatus(status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(telemetry.Items(len(items)))
	return items, nil
}

func (c *Client[T]) get(ctx context.Context, url string) ([]T, int, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	logger.DebugCtx(ctx, "Feed request completed",
		logger.URL(url),
		logger.StatusCode(resp.StatusCode),
		logger.DurationMs(logger.Duration(start)))

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, decodeError(resp)
	}

	items, err := feed.DecodeEnvelope[T](resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return items, resp.StatusCode, nil
}

func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read error body: %w", err)
	}

	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}
