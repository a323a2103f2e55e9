package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		Logger:       zerolog.Nop(),
	}
}

func TestNewDefaults(t *testing.T) {
	client := New(Config{Logger: zerolog.Nop()})
	assert.Equal(t, DefaultTimeout, client.HTTPClient.Timeout)
	assert.Equal(t, 0, client.RetryMax)
	assert.Equal(t, DefaultRetryWaitMin, client.RetryWaitMin)
	assert.Equal(t, DefaultRetryWaitMax, client.RetryWaitMax)
}

func TestRetryBehaviour(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantStatus   int
		wantAttempts int32
	}{
		{
			name:         "success first try",
			statuses:     []int{http.StatusOK},
			wantStatus:   http.StatusOK,
			wantAttempts: 1,
		},
		{
			name:         "recovers after server errors",
			statuses:     []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK},
			wantStatus:   http.StatusOK,
			wantAttempts: 3,
		},
		{
			name:         "rate limited then ok",
			statuses:     []int{http.StatusTooManyRequests, http.StatusOK},
			wantStatus:   http.StatusOK,
			wantAttempts: 2,
		},
		{
			name:         "gives up and passes last response through",
			statuses:     []int{http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError},
			wantStatus:   http.StatusInternalServerError,
			wantAttempts: 3,
		},
		{
			name:         "client error is not retried",
			statuses:     []int{http.StatusNotFound},
			wantStatus:   http.StatusNotFound,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(attempts.Add(1)) - 1
				if n >= len(tt.statuses) {
					n = len(tt.statuses) - 1
				}
				w.WriteHeader(tt.statuses[n])
			}))
			defer server.Close()

			req, err := retryablehttp.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
			require.NoError(t, err)

			resp, err := New(testConfig()).Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestCheckRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry, err := CheckRetry(ctx, &http.Response{StatusCode: http.StatusServiceUnavailable}, nil)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}
