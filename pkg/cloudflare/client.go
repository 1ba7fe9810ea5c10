package cloudflare

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benedict-erwin/wafanalyzer/config"
	"github.com/benedict-erwin/wafanalyzer/pkg/logger"
	"github.com/goccy/go-json"
)

// DefaultAcceptedStatuses are the statuses a call treats as success.
// 400 is included because the events endpoint answers some empty queries with it.
var DefaultAcceptedStatuses = []int{http.StatusOK, http.StatusBadRequest}

// Client issues authenticated GET requests against the v4 API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	user        string
	key         string
	userAgent   string
	retryConfig RetryConfig
	log         *logger.ScopedLogger
}

// Options configures a Client
type Options struct {
	BaseURL       string
	User          string
	Key           string
	Version       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	HTTPClient    *http.Client
}

// NewClient creates a new API client
func NewClient(opts Options) (*Client, error) {
	// Validate credentials
	if opts.User == "" {
		return nil, fmt.Errorf("cloudflare user is required")
	}
	if opts.Key == "" {
		return nil, fmt.Errorf("cloudflare API key is required")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("cloudflare base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		user:       opts.User,
		key:        opts.Key,
		userAgent:  "wafanalyzer-" + opts.Version,
		retryConfig: RetryConfig{
			MaxAttempts: attempts,
			Delay:       opts.RetryDelay,
		},
		log: logger.WithScope("cloudflare"),
	}, nil
}

// NewClientFromConfig builds a Client from the cloudflare config section
func NewClientFromConfig(cfg config.CloudflareConfig, creds config.Credentials, version string) (*Client, error) {
	// Parse timeout
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration: %w", err)
	}

	// Parse retry delay
	var retryDelay time.Duration
	if cfg.RetryDelay != "" {
		if retryDelay, err = time.ParseDuration(cfg.RetryDelay); err != nil {
			return nil, fmt.Errorf("invalid retry delay duration: %w", err)
		}
	}

	return NewClient(Options{
		BaseURL:       cfg.BaseURL,
		User:          creds.User,
		Key:           creds.Key,
		Version:       version,
		Timeout:       timeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    retryDelay,
	})
}

// setHeaders adds the auth and content headers sent with every request
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Auth-Key", c.key)
	req.Header.Set("X-Auth-Email", c.user)
	req.Header.Set("Content-Type", "application/json")
}

// Get performs a GET on path with params and decodes the JSON body into out.
// It returns the HTTP status code of the final attempt.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out interface{}) (int, error) {
	return c.get(ctx, path, params, out, DefaultAcceptedStatuses)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}, accepted []int) (int, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		status, body, err := c.do(ctx, endpoint)

		// Transport failure
		if err != nil {
			lastErr = &APIError{Kind: KindTransport, Path: path, Err: err}
			if attempt < c.retryConfig.MaxAttempts && ctx.Err() == nil {
				c.log.Warn().
					Err(err).
					Str("path", path).
					Int("attempt", attempt).
					Dur("retry_delay", c.retryConfig.Delay).
					Msg("Request failed, retrying")
				if err := sleepCtx(ctx, c.retryConfig.Delay); err != nil {
					return 0, lastErr
				}
				continue
			}
			return 0, lastErr
		}

		// Unexpected status, keep the API error messages
		if !statusIn(status, accepted) {
			apiErr := &APIError{Kind: KindStatus, Path: path, StatusCode: status}
			var envelope struct {
				Errors []Message `json:"errors"`
			}
			if json.Unmarshal(body, &envelope) == nil {
				apiErr.Messages = envelope.Errors
			}
			if retryableStatus(status) && attempt < c.retryConfig.MaxAttempts {
				c.log.Warn().
					Int("status_code", status).
					Str("path", path).
					Int("attempt", attempt).
					Msg("Request returned retryable status, retrying")
				lastErr = apiErr
				if err := sleepCtx(ctx, c.retryConfig.Delay); err != nil {
					return status, apiErr
				}
				continue
			}
			return status, apiErr
		}

		if status == http.StatusBadRequest {
			c.log.Warn().
				Str("path", path).
				Int("status_code", status).
				Msg("API answered 400, treating response as success")
		}

		// Decode body; a 404 carries no result
		if out != nil && status != http.StatusNotFound {
			if err := json.Unmarshal(body, out); err != nil {
				return status, &APIError{Kind: KindDecode, Path: path, StatusCode: status, Err: err}
			}
		}

		c.log.Debug().
			Str("path", path).
			Int("status_code", status).
			Int("bytes", len(body)).
			Msg("Request completed")

		return status, nil
	}

	return 0, lastErr
}

// do executes a single GET and returns status and body
func (c *Client) do(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// String returns string representation with masked credentials
func (c *Client) String() string {
	return fmt.Sprintf("cloudflare.Client{User: %s, Key: ****, BaseURL: %s}", c.maskUser(), c.baseURL)
}

// maskUser masks the account identifier for logging
func (c *Client) maskUser() string {
	if len(c.user) <= 4 {
		return "****"
	}
	return c.user[:2] + "****" + c.user[len(c.user)-2:]
}

func statusIn(status int, accepted []int) bool {
	for _, s := range accepted {
		if s == status {
			return true
		}
	}
	return false
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
