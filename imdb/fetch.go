package imdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/s0up4200/jellyrequest/httpclient"
)

// DefaultUserAgent mimics a desktop browser; IMDb rejects default client signatures
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"

// maxDocumentSize caps the listing body read into memory
const maxDocumentSize = 10 << 20

// FetcherConfig contains options for the listing fetcher
type FetcherConfig struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Fetcher retrieves listing pages over HTTP
type Fetcher struct {
	client    *retryablehttp.Client
	userAgent string
	maxBytes  int64
	logger    zerolog.Logger
}

// NewFetcher creates a listing fetcher
func NewFetcher(cfg FetcherConfig, logger zerolog.Logger) *Fetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	logger = logger.With().Str("component", "fetcher").Logger()

	return &Fetcher{
		client: httpclient.New(httpclient.Config{
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryWaitMin: cfg.RetryWaitMin,
			RetryWaitMax: cfg.RetryWaitMax,
			Logger:       logger,
		}),
		userAgent: userAgent,
		maxBytes:  maxDocumentSize,
		logger:    logger,
	}
}

// Fetch retrieves the raw document at rawURL.
// Transient failures are retried by the transport; any failure is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		if err == nil {
			err = errors.New("URL must be absolute http(s)")
		}
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	f.logger.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Listing response received")

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s: %s", resp.Status, string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("document exceeds %d bytes", f.maxBytes)}
	}

	f.logger.Debug().Int("bytes", len(body)).Msg("Fetched listing document")
	return body, nil
}
