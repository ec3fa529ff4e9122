// Package client provides the core Snyk REST HTTP client with rate-limit
// handling, optional response caching, and error classification.
package client

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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/1B05H1N/snyk-projects-tag-updater/pkg/cache"
)

// Prometheus metrics for Snyk client operations.
var (
	snykRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snyk_requests_total",
		Help: "Total Snyk API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	snykRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snyk_request_duration_seconds",
		Help:    "Snyk API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	snykErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snyk_errors_total",
		Help: "Total Snyk API errors by class",
	}, []string{"class"})

	snykRateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snyk_rate_limit_waits_total",
		Help: "Total number of 429-triggered waits",
	})

	snykRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snyk_rate_limit_wait_seconds",
		Help:    "Duration of 429-triggered waits in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120},
	})

	snykRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snyk_retry_exhausted_total",
		Help: "Total number of times the rate-limit retry budget was exhausted",
	})
)

// Config holds the client configuration.
type Config struct {
	// Token is the Snyk API token (REQUIRED).
	Token string

	// BaseURL is the REST API base, e.g. "https://api.snyk.io/rest".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout for a single HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of 429 responses tolerated before the
	// rate-limit error is propagated.
	MaxRetries int

	// RetryAfterDefault is the wait used when a 429 response carries no
	// Retry-After header.
	RetryAfterDefault time.Duration

	// CacheTTL is the lifetime of cached GET responses (when a cache is
	// attached via SetCache).
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token string) Config {
	return Config{
		Token:             token,
		BaseURL:           "https://api.snyk.io/rest",
		UserAgent:         "snyk-tag-updater/1.0",
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryAfterDefault: 60 * time.Second,
		CacheTTL:          5 * time.Minute,
	}
}

// Client is the Snyk REST HTTP client. One request is in flight at a time;
// the client carries no mutable request state and is safe for sequential use.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a new Snyk client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("api token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.snyk.io/rest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryAfterDefault <= 0 {
		cfg.RetryAfterDefault = 60 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	logger := log.With().Str("component", "snyk-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
		sleep:  sleepWithContext,
	}, nil
}

// sleepWithContext blocks for d or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-time.After(d):
		return nil
	}
}

// BaseURL returns the configured REST base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// resolveURL joins a path with the base URL and merges query parameters.
// Absolute URLs (pagination next-links) are used as-is.
func (c *Client) resolveURL(path string, params url.Values) (string, error) {
	full := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = c.config.BaseURL + path
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", full, err)
	}

	if len(params) > 0 {
		q := u.Query()
		for key, values := range params {
			q[key] = values
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// Do performs an HTTP request against the Snyk API.
//
// 429 responses are retried after waiting the Retry-After duration (or the
// configured default when the header is absent); once MaxRetries rate-limited
// attempts have been consumed the rate-limit error is propagated. Any other
// error status is returned immediately. Network errors are logged and
// returned, never swallowed.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body []byte) (*http.Response, error) {
	fullURL, err := c.resolveURL(path, params)
	if err != nil {
		return nil, err
	}

	endpoint := metricEndpoint(fullURL)

	start := time.Now()
	defer func() {
		snykRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	retries := 0
	for {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Authorization", "Token "+c.config.Token)
		req.Header.Set("Accept", "application/vnd.api+json")
		req.Header.Set("User-Agent", c.config.UserAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/vnd.api+json")
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("method", method).
			Msg("Executing Snyk request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			snykErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			snykRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().
				Err(err).
				Str("endpoint", endpoint).
				Str("method", method).
				Msg("HTTP request failed")
			return nil, &APIError{
				Class:    ErrorClassNetwork,
				Endpoint: endpoint,
				Message:  "request failed",
				Err:      err,
			}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header, c.config.RetryAfterDefault)
			drainBody(resp)

			snykErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			snykRequestsTotal.WithLabelValues(endpoint, "429").Inc()
			snykRateLimitWaitsTotal.Inc()
			snykRateLimitWaitSeconds.Observe(retryAfter.Seconds())

			c.logger.Warn().
				Str("endpoint", endpoint).
				Dur("retry_after", retryAfter).
				Int("retries", retries).
				Msg("Rate limit exceeded, waiting before retry")

			if err := c.sleep(ctx, retryAfter); err != nil {
				return nil, err
			}

			retries++
			if retries > c.config.MaxRetries {
				snykRetryExhaustedTotal.Inc()
				c.logger.Warn().
					Str("endpoint", endpoint).
					Int("max_retries", c.config.MaxRetries).
					Msg("Max retries exceeded")
				return nil, &APIError{
					StatusCode: http.StatusTooManyRequests,
					Class:      ErrorClassRateLimit,
					Endpoint:   endpoint,
					Message:    "rate limited",
					Err:        fmt.Errorf("%w after %d attempts", ErrRetryExhausted, retries),
				}
			}
			continue
		}

		if resp.StatusCode >= 400 {
			class := classify(resp.StatusCode, nil)
			message := readErrorBody(resp)

			snykErrorsTotal.WithLabelValues(string(class)).Inc()
			snykRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Str("method", method).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Snyk request error")

			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Class:      class,
				Endpoint:   endpoint,
				Message:    message,
			}
		}

		snykRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return resp, nil
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, params, nil)
}

// GetJSON performs a GET request and decodes the JSON body into v. When a
// cache is attached, the response may be served from and stored into it.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	return c.getJSON(ctx, path, params, v, true)
}

// GetJSONFresh performs a GET request and decodes the JSON body into v,
// always bypassing the cache. The tag updater uses this for its pre-patch
// fetch and post-patch verification so it observes the server, not a cache.
func (c *Client) GetJSONFresh(ctx context.Context, path string, params url.Values, v any) error {
	return c.getJSON(ctx, path, params, v, false)
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any, cacheable bool) error {
	fullURL, err := c.resolveURL(path, params)
	if err != nil {
		return err
	}

	var key cache.Key
	if cacheable && c.cache != nil {
		key = cache.KeyForURL(fullURL)
		entry, err := c.cache.Get(ctx, key)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", metricEndpoint(fullURL)).Msg("Cache get error")
		}
		if entry != nil {
			return json.Unmarshal(entry.Data, v)
		}
	}

	resp, err := c.Do(ctx, http.MethodGet, fullURL, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if cacheable && c.cache != nil {
		entry := cache.NewEntry(data, resp.StatusCode, c.config.CacheTTL)
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", metricEndpoint(fullURL)).Msg("Cache set error")
		}
	}

	return json.Unmarshal(data, v)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, params url.Values, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal patch body: %w", err)
	}
	return c.Do(ctx, http.MethodPatch, path, params, body)
}

// SetCache attaches a response cache for GET requests.
func (c *Client) SetCache(m *cache.Manager) {
	c.cache = m
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetSleepFunc replaces the rate-limit wait function (for testing).
func (c *Client) SetSleepFunc(fn func(ctx context.Context, d time.Duration) error) {
	c.sleep = fn
}

// parseRetryAfter reads the Retry-After header as integer seconds, falling
// back to def when absent or unparseable.
func parseRetryAfter(h http.Header, def time.Duration) time.Duration {
	value := h.Get("Retry-After")
	if value == "" {
		return def
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}

// metricEndpoint reduces a URL to its path for metric labels.
func metricEndpoint(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	return u.Path
}

// readErrorBody extracts a short message from an error response and closes it.
func readErrorBody(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	return strings.TrimSpace(string(data))
}

// drainBody discards and closes a response body so the connection can be
// reused across retries.
func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
