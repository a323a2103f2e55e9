package jellyseerr

import (
	"net/http"
	"time"

	"github.com/s0up4200/jellyrequest/httpclient"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout         time.Duration
	maxRetries      int
	retryWaitMin    time.Duration
	retryWaitMax    time.Duration
	httpClient      *http.Client
	rateLimit       float64
	rateBurst       int
	breakerFailures uint32
	breakerTimeout  time.Duration
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:         httpclient.DefaultTimeout,
		maxRetries:      httpclient.DefaultMaxRetries,
		retryWaitMin:    httpclient.DefaultRetryWaitMin,
		retryWaitMax:    httpclient.DefaultRetryWaitMax,
		rateLimit:       5,
		rateBurst:       1,
		breakerFailures: 5,
		breakerTimeout:  time.Minute,
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client used for each attempt.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithRetry sets the retry ceiling and backoff bounds.
func WithRetry(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(o *clientOptions) {
		if maxRetries >= 0 {
			o.maxRetries = maxRetries
		}
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// WithRateLimit paces API calls. A non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *clientOptions) {
		o.rateLimit = perSecond
		o.rateBurst = burst
	}
}

// WithCircuitBreaker opens the circuit after the given number of consecutive
// failures and probes again after timeout. Zero failures disables the breaker.
func WithCircuitBreaker(failures uint32, timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.breakerFailures = failures
		if timeout > 0 {
			o.breakerTimeout = timeout
		}
	}
}
