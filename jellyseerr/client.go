package jellyseerr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/s0up4200/jellyrequest/httpclient"
	"github.com/s0up4200/jellyrequest/imdb"
)

// Client represents a Jellyseerr API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     zerolog.Logger
}

// NewClient creates a new Jellyseerr client.
// No request is made; use TestConnection to verify the URL and API key.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: jellyseerr URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: jellyseerr API key is required", ErrInvalidConfig)
	}

	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: jellyseerr URL must be absolute http(s): %q", ErrInvalidConfig, baseURL)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger = logger.With().Str("component", "jellyseerr").Logger()

	httpClient := httpclient.New(httpclient.Config{
		Timeout:      o.timeout,
		MaxRetries:   o.maxRetries,
		RetryWaitMin: o.retryWaitMin,
		RetryWaitMax: o.retryWaitMax,
		Logger:       logger,
	})
	if o.httpClient != nil {
		httpClient.HTTPClient = o.httpClient
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}

	if o.rateLimit > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(o.rateLimit), max(o.rateBurst, 1))
	}

	if o.breakerFailures > 0 {
		client.breaker = newBreaker(o.breakerFailures, o.breakerTimeout, logger)
	}

	return client, nil
}

func newBreaker(failures uint32, timeout time.Duration, logger zerolog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "jellyseerr",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Only an unreachable or failing service trips the breaker
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.IsServerError()
			}
			return IsAuthError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

// doRequest performs an authenticated request and decodes a JSON response into out
func (c *Client) doRequest(ctx context.Context, method, endpoint, rawQuery string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	call := func() ([]byte, error) {
		return c.send(ctx, method, endpoint, rawQuery, body)
	}

	var (
		data []byte
		err  error
	)
	if c.breaker != nil {
		data, err = c.breaker.Execute(call)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
	} else {
		data, err = call()
	}
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint, rawQuery string, body any) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/api/v1%s", c.baseURL, endpoint)
	if rawQuery != "" {
		reqURL += "?" + rawQuery
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var rawBody any
	if payload != nil {
		rawBody = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, reqURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Trace().
		Str("method", method).
		Str("endpoint", endpoint).
		Msg("Making Jellyseerr API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	message := errorMessage(data, resp.Status)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: message}
	}

	return nil, &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       string(data),
	}
}

// errorMessage pulls the "message" field out of an error body
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(body) > 0 && len(body) <= 256 {
		return strings.TrimSpace(string(body))
	}
	return fallback
}

// TestConnection verifies the service is reachable and the API key is accepted
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.CurrentUser(ctx)
	return err
}

// CurrentUser returns the user the API key belongs to
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodGet, "/auth/me", "", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchRaw runs a title search and returns the first page of results
func (c *Client) SearchRaw(ctx context.Context, query string) (*SearchResponse, error) {
	// Jellyseerr rejects "+" for spaces, so encode them as %20
	rawQuery := "query=" + strings.ReplaceAll(url.QueryEscape(query), "+", "%20") + "&page=1&language=en"

	var response SearchResponse
	if err := c.doRequest(ctx, http.MethodGet, "/search", rawQuery, nil, &response); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &response, nil
}

// Search resolves a listing movie to its catalog entry.
// Returns ErrNoMatch when the search produced no corresponding movie.
func (c *Client) Search(ctx context.Context, movie imdb.Movie) (*SearchResult, error) {
	response, err := c.SearchRaw(ctx, movie.Title)
	if err != nil {
		return nil, err
	}

	item := matchMovie(movie, response.Results)
	if item == nil {
		c.logger.Debug().
			Str("title", movie.Title).
			Int("results", len(response.Results)).
			Msg("No matching movie in search results")
		return nil, fmt.Errorf("search %q: %w", movie.Title, ErrNoMatch)
	}

	result := resolve(item)

	c.logger.Debug().
		Str("title", movie.Title).
		Str("imdb_id", movie.ExternalID).
		Str("matched", result.Title).
		Int("tmdb_id", result.TMDBID).
		Int("media_id", result.MediaID).
		Stringer("availability", result.Standard.Availability).
		Stringer("request", result.Standard.Request).
		Stringer("availability_4k", result.UHD.Availability).
		Stringer("request_4k", result.UHD.Request).
		Msg("Resolved movie")

	return result, nil
}

// RequestMedia submits a movie request for the given TMDB id.
// A request the service already holds is reported as a duplicate, not an error.
func (c *Client) RequestMedia(ctx context.Context, tmdbID int, opts RequestOptions) (*RequestOutcome, error) {
	body := createRequestBody{
		MediaType:  MediaTypeMovie,
		MediaID:    tmdbID,
		Is4k:       opts.Is4K,
		ServerID:   opts.ServerID,
		ProfileID:  opts.ProfileID,
		RootFolder: opts.RootFolder,
		UserID:     opts.UserID,
	}

	var created MediaRequest
	err := c.doRequest(ctx, http.MethodPost, "/request", "", body, &created)
	if err != nil {
		// 403 here means quota or 4K permission, not a bad key
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.StatusCode == http.StatusForbidden {
			return nil, &APIError{StatusCode: authErr.StatusCode, Message: authErr.Message}
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && isDuplicate(apiErr) {
			return &RequestOutcome{Duplicate: true, Message: apiErr.Message}, nil
		}
		return nil, err
	}

	outcome := &RequestOutcome{
		RequestID: created.ID,
		Status:    created.Status,
		Approved:  created.Status == RequestStatusApproved,
	}

	if opts.AutoApprove && created.Status == RequestStatusPending && created.ID != 0 {
		if err := c.ApproveRequest(ctx, created.ID); err != nil {
			// 403 means the key's user may not manage requests; the request itself stands
			var authErr *AuthError
			if errors.As(err, &authErr) && authErr.StatusCode != http.StatusForbidden {
				return nil, err
			}
			c.logger.Warn().Err(err).Int("request_id", created.ID).Msg("Failed to auto-approve request")
		} else {
			outcome.Approved = true
			outcome.Status = RequestStatusApproved
		}
	}

	return outcome, nil
}

// ApproveRequest approves a pending request
func (c *Client) ApproveRequest(ctx context.Context, requestID int) error {
	endpoint := fmt.Sprintf("/request/%d/approve", requestID)
	return c.doRequest(ctx, http.MethodPost, endpoint, "", nil, nil)
}

func isDuplicate(err *APIError) bool {
	if err.StatusCode == http.StatusConflict {
		return true
	}
	return err.StatusCode < 500 && strings.Contains(strings.ToLower(err.Message), "already exists")
}
