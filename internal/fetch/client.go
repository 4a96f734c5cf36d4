// internal/fetch/client.go
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	kolerrors "github.com/valpere/KOLMetrics/internal/errors"
)

// Client is the shared HTTP client for all retrieval strategies: request
// timeout, retry with backoff for transient failures, user-agent rotation
// and rate limiting so a batch run stays polite to providers.
type Client struct {
	httpClient  *http.Client
	userAgents  []string
	currentUA   int
	uaMutex     sync.Mutex
	rateLimiter *rate.Limiter
	retry       kolerrors.RetryConfig
	headers     map[string]string
}

// ClientConfig defines configuration options for the HTTP client.
type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgents []string
	Headers    map[string]string
	RateLimit  float64 // requests per second
	RateBurst  int
}

// NewClient creates an HTTP client with the given configuration. Zero
// values fall back to defaults: 15s timeout, 2 retries, 1 rps.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1.0
	}
	if config.RateBurst == 0 {
		config.RateBurst = 5
	}
	if len(config.UserAgents) == 0 {
		config.UserAgents = defaultUserAgents()
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		httpClient:  httpClient,
		userAgents:  config.UserAgents,
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		retry: kolerrors.RetryConfig{
			MaxRetries: config.MaxRetries,
			BaseDelay:  config.RetryDelay,
			MaxDelay:   30 * time.Second,
		},
		headers: config.Headers,
	}
}

// Get performs a GET request with rate limiting and retry. Non-2xx
// responses and transport failures come back as RetrievalError; retryable
// statuses (429, 5xx) are retried before giving up. The caller owns the
// response body.
func (c *Client) Get(ctx context.Context, targetURL string) (*http.Response, error) {
	if _, err := url.ParseRequestURI(targetURL); err != nil {
		return nil, kolerrors.NewRetrieval(targetURL, fmt.Errorf("invalid URL: %w", err))
	}

	var resp *http.Response
	err := kolerrors.Retry(ctx, c.retry, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return kolerrors.NewRetrieval(targetURL, fmt.Errorf("rate limiter: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			return kolerrors.NewRetrieval(targetURL, fmt.Errorf("build request: %w", err))
		}
		c.setRequestHeaders(req)

		r, err := c.httpClient.Do(req)
		if err != nil {
			return kolerrors.NewRetrieval(targetURL, err)
		}

		if r.StatusCode < 200 || r.StatusCode >= 300 {
			r.Body.Close()
			statusErr := kolerrors.NewRetrievalStatus(targetURL, r.StatusCode, fmt.Errorf("%s", r.Status))
			if !retryableStatus(r.StatusCode) {
				return kolerrors.Permanent(statusErr)
			}
			return statusErr
		}

		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// setRequestHeaders configures browser-like headers and UA rotation.
func (c *Client) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

// nextUserAgent returns the next user agent in rotation.
func (c *Client) nextUserAgent() string {
	c.uaMutex.Lock()
	defer c.uaMutex.Unlock()

	if len(c.userAgents) == 0 {
		return "KOLMetrics/1.0"
	}
	ua := c.userAgents[c.currentUA]
	c.currentUA = (c.currentUA + 1) % len(c.userAgents)
	return ua
}

// retryableStatus reports whether a status code warrants another attempt.
func retryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// defaultUserAgents returns a set of realistic user agent strings.
func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	}
}
