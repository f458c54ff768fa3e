// Package client is a thin client for the products REST API. Every method
// performs exactly one HTTP round trip and surfaces failures unchanged; there
// is no retry logic.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Lixing-Zhang/product-catalog/internal/metrics"
	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

const productsPath = "Products"

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client issues list/create/update/delete requests against a base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger for request logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records request counts and latencies in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// List returns every product in server order.
func (c *Client) List(ctx context.Context) ([]models.Product, error) {
	resp, err := c.do(ctx, "list", http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var products []models.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, &DecodeError{Op: "list", Err: err}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Create submits a draft and returns the server-assigned identifier. The
// response may be a bare integer or an object with an "id" field.
func (c *Client) Create(ctx context.Context, draft models.Draft) (int64, error) {
	resp, err := c.do(ctx, "create", http.MethodPost, c.endpoint(), draft)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &DecodeError{Op: "create", Err: err}
	}
	id, err := decodeID(body)
	if err != nil {
		return 0, &DecodeError{Op: "create", Err: err}
	}
	return id, nil
}

// Update replaces the four non-id fields of an existing product.
func (c *Client) Update(ctx context.Context, id int64, draft models.Draft) error {
	resp, err := c.do(ctx, "update", http.MethodPut, c.endpoint(strconv.FormatInt(id, 10)), draft)
	if err != nil {
		return err
	}
	drain(resp.Body)
	return nil
}

// Delete removes a product on the server.
func (c *Client) Delete(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, "delete", http.MethodDelete, c.endpoint(strconv.FormatInt(id, 10)), nil)
	if err != nil {
		return err
	}
	drain(resp.Body)
	return nil
}

func (c *Client) endpoint(elem ...string) string {
	return c.baseURL.JoinPath(append([]string{productsPath}, elem...)...).String()
}

// do performs a single request. On success the caller owns resp.Body; any
// non-2xx response is consumed and returned as a *StatusError.
func (c *Client) do(ctx context.Context, op, method, endpoint string, payload any) (*http.Response, error) {
	start := time.Now()

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s products: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s products: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = &NetworkError{Op: op, Err: err}
		c.observe(op, method, endpoint, requestID, 0, err, start)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		statusErr := &StatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
		c.observe(op, method, endpoint, requestID, resp.StatusCode, statusErr, start)
		return nil, statusErr
	}

	c.observe(op, method, endpoint, requestID, resp.StatusCode, nil, start)
	return resp, nil
}

func (c *Client) observe(op, method, endpoint, requestID string, status int, err error, start time.Time) {
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(op, err, elapsed)

	if err != nil {
		c.logger.Warn("products request failed",
			"op", op,
			"method", method,
			"url", endpoint,
			"request_id", requestID,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return
	}
	c.logger.Debug("products request",
		"op", op,
		"method", method,
		"url", endpoint,
		"request_id", requestID,
		"status", status,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// errorMessage extracts {"error": "..."} from an error body, falling back to
// the raw text.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(bytes.TrimSpace(raw))
}

func decodeID(body []byte) (int64, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return 0, errors.New("empty body")
	}

	if body[0] == '{' {
		var obj struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(body, &obj); err != nil {
			return 0, err
		}
		if obj.ID == nil {
			return 0, errors.New(`object has no "id" field`)
		}
		return *obj.ID, nil
	}

	var id int64
	if err := json.Unmarshal(body, &id); err != nil {
		return 0, err
	}
	return id, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
	_ = body.Close()
}
