// internal/studioapi/client.go
package studioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout  = 15 * time.Second
	maxResponseBody = 8 << 20
	uploadPath      = "/api/upload"
)

// Client talks to the studio backend REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	metrics *Metrics
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept as is.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the backend at baseURL. A zero timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend base url must be http or https: %s", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend origin, used to resolve relative image paths.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ResolveAsset turns a backend-relative path like /uploads/a.png into an absolute URL.
func (c *Client) ResolveAsset(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

// Do sends a request and returns the response body. Non-2xx statuses and
// non-JSON bodies come back as *FetchError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	target := *c.baseURL
	target.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, &FetchError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger := log.Ctx(ctx).With().Str("method", method).Str("path", path).Logger()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(method, path, 0, time.Since(start))
		c.metrics.fail(method, path, "transport")
		logger.Warn().Err(err).Msg("Backend request failed")
		return nil, &FetchError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	c.metrics.observe(method, path, resp.StatusCode, time.Since(start))
	if err != nil {
		c.metrics.fail(method, path, "read")
		return nil, &FetchError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.fail(method, path, "status")
		logger.Warn().Int("status", resp.StatusCode).Msg("Backend returned error status")
		return nil, &FetchError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data)}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		c.metrics.fail(method, path, "content_type")
		logger.Warn().Str("content_type", resp.Header.Get("Content-Type")).Msg("Backend returned non-JSON body")
		return nil, &FetchError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data), Err: ErrMalformedResponse}
	}
	return data, nil
}

// GetJSON fetches path and decodes the body into dst.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dst any) error {
	data, err := c.Do(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return decodeBody(http.MethodGet, path, data, dst)
}

// SendJSON encodes payload as the request body. dst may be nil.
func (c *Client) SendJSON(ctx context.Context, method, path string, payload any, dst any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	data, err := c.Do(ctx, method, path, nil, body, contentType)
	if err != nil {
		return err
	}
	return decodeBody(method, path, data, dst)
}

// SendMultipart posts a multipart form. dst may be nil.
func (c *Client) SendMultipart(ctx context.Context, method, path string, form *MultipartForm, dst any) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	data, err := c.Do(ctx, method, path, nil, body, contentType)
	if err != nil {
		return err
	}
	return decodeBody(method, path, data, dst)
}

type uploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// Upload stores an image through /api/upload and returns its public path.
func (c *Client) Upload(ctx context.Context, file File) (string, error) {
	if len(file.Data) == 0 {
		return "", fmt.Errorf("upload: file is empty")
	}
	if file.Field == "" {
		file.Field = "image"
	}
	form := NewMultipartForm()
	form.AddFile(file)

	var resp uploadResponse
	if err := c.SendMultipart(ctx, http.MethodPost, uploadPath, form, &resp); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", &FetchError{Method: http.MethodPost, Path: uploadPath, Err: fmt.Errorf("%w: missing imageUrl", ErrMalformedResponse)}
	}
	return resp.ImageURL, nil
}

func decodeBody(method, path string, data []byte, dst any) error {
	if dst == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &FetchError{Method: method, Path: path, Body: string(data), Err: errors.Join(ErrMalformedResponse, err)}
	}
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
