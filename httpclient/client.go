// Package httpclient builds the retrying HTTP client shared by the IMDb fetcher
// and the Jellyseerr client.
package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Default transport settings
const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryWaitMin = 1 * time.Second
	DefaultRetryWaitMax = 30 * time.Second
)

// Config contains options for creating a retrying client
type Config struct {
	// Timeout bounds a single attempt, not the whole retry sequence
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int

	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	Logger zerolog.Logger
}

// New creates a retrying HTTP client.
//
// Connection errors, HTTP 429 and 5xx responses are retried with exponential
// backoff (honoring Retry-After). Other responses are returned as-is. When the
// retries are exhausted the last response or error is passed back to the caller
// unchanged so it can be classified there.
func New(cfg Config) *retryablehttp.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = DefaultRetryWaitMin
	}
	if cfg.RetryWaitMax < cfg.RetryWaitMin {
		cfg.RetryWaitMax = max(DefaultRetryWaitMax, cfg.RetryWaitMin)
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.CheckRetry = CheckRetry
	client.Backoff = retryablehttp.DefaultBackoff
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = NewLeveledLogger(cfg.Logger)

	return client
}

// CheckRetry decides whether a request should be retried.
// Status-based retries carry no error so the final response reaches the caller.
func CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if err == nil && resp != nil {
		return retry, nil
	}
	return retry, checkErr
}
