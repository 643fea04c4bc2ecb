package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kalamart/storefront-api/pkg/config"
	pkgerrors "github.com/kalamart/storefront-api/pkg/errors"
	"github.com/kalamart/storefront-api/pkg/logger"
	"github.com/kalamart/storefront-api/pkg/metrics"
)

const responseBodyReadLimit int64 = 4096

var errBaseURLRequired = errors.New("commerce base url is required")

// Client wraps the upstream commerce API that owns carts, coupons, and orders.
//
// The upstream is authoritative for everything: the storefront never retries a
// failed call and never trusts locally computed state over a fresh fetch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
	metrics    *metrics.CheckoutMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMetrics records call durations and failures per upstream operation.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the commerce client from configuration.
func NewClient(cfg config.CommerceConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// UpstreamError carries the raw upstream failure for diagnostics.
type UpstreamError struct {
	Status  int
	RawBody string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.RawBody)
}

// StatusCode reports the upstream HTTP status.
func (e *UpstreamError) StatusCode() int { return e.Status }

// Body returns the truncated upstream response body.
func (e *UpstreamError) Body() string { return e.RawBody }

func (c *Client) get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, payload, dest any) error {
	return c.do(ctx, http.MethodPost, path, payload, dest)
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal commerce request")
		}
		body = bytes.NewReader(encoded)
	}

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build commerce request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveUpstream(operationLabel(path), time.Since(started))
	if err != nil {
		c.metrics.IncUpstreamFailure(operationLabel(path))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute commerce request %s", path))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapFailure(ctx, path, resp)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode commerce response %s", path))
	}
	return nil
}

// mapFailure converts an upstream rejection into a typed error, keeping the
// upstream-supplied message verbatim for business rejections.
func (c *Client) mapFailure(ctx context.Context, path string, resp *http.Response) error {
	c.metrics.IncUpstreamFailure(operationLabel(path))

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	trimmed := strings.TrimSpace(string(raw))

	message := upstreamMessage(trimmed)
	if message == "" {
		message = fmt.Sprintf("commerce request %s failed", path)
	}

	if c.logger != nil {
		ctx = c.logger.WithFields(ctx, map[string]any{
			"path":   path,
			"status": resp.StatusCode,
		})
		c.logger.Warn(ctx, "commerce request rejected")
	}

	cause := &UpstreamError{Status: resp.StatusCode, RawBody: trimmed}
	return pkgerrors.Wrap(codeForStatus(resp.StatusCode), cause, message)
}

// operationLabel keeps metric cardinality bounded: identifiers after the
// first path segment are dropped.
func operationLabel(path string) string {
	trimmed := strings.TrimPrefix(strings.TrimLeft(path, "/"), "api/")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

func upstreamMessage(body string) string {
	if body == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
