// Package client implements the HTTP client for the portfolio backend:
// profile, chat session lifecycle, and streamed chat replies.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/frantai/folio/pkg/profile"
)

const (
	// DefaultAPIPrefix is the path prefix of every backend route.
	DefaultAPIPrefix = "/api/v1"

	// DefaultTimeout bounds a whole request, streamed replies included.
	DefaultTimeout = 5 * time.Minute
)

// Config holds configuration for the backend client.
type Config struct {
	// BaseURL is the backend URL (e.g., "http://localhost:8000").
	BaseURL string

	// APIPrefix is prepended to every route. Defaults to DefaultAPIPrefix
	// if empty.
	APIPrefix string

	// Timeout bounds each request. Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// HTTPClient overrides the underlying client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the portfolio backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new backend client.
func NewClient(c Config, logger *zap.Logger) (*Client, error) {
	if c.BaseURL == "" {
		return nil, errors.New("backend URL is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL %q must use http or https", c.BaseURL)
	}

	prefix := c.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")

	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(c.BaseURL, "/") + prefix,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetProfile fetches the complete resume document.
func (c *Client) GetProfile(ctx context.Context) (*profile.Profile, error) {
	p := &profile.Profile{}
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

// do sends a request and returns the response when its status is 2xx.
// Any other outcome is a *TransportError.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request", zap.String("op", op))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		terr := &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
		}
		c.logger.Debug("backend request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", terr.Detail),
		)
		return nil, terr
	}

	return resp, nil
}

// doJSON sends a request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		op := method + " " + path
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return fmt.Errorf("decoding %s response: %w", op, err)
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	return nil
}
