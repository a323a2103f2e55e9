// Package jellyseerr provides a client for the parts of the Jellyseerr API
// needed to turn a list of wanted movies into media requests.
//
// # Usage
//
//	client, err := jellyseerr.NewClient(
//		"http://jellyseerr.local:5055",
//		"your-api-key",
//		logger,
//		jellyseerr.WithTimeout(15*time.Second),
//		jellyseerr.WithRateLimit(5, 1),
//	)
//	if err != nil {
//		return err
//	}
//
//	result, err := client.Search(ctx, movie)
//	if errors.Is(err, jellyseerr.ErrNoMatch) {
//		// nothing in the catalog corresponds to the title
//	}
//
//	if !result.StatusFor(true).Satisfied() {
//		outcome, err := client.RequestMedia(ctx, result.TMDBID, jellyseerr.RequestOptions{Is4K: true})
//		...
//	}
//
// # Resilience
//
// Every call is paced by a token bucket, retried with exponential backoff on
// transport errors, 429 and 5xx responses, and guarded by a circuit breaker
// that opens after repeated server-side failures. A rejected API key surfaces
// as *AuthError, which wraps ErrUnauthorized; other failures are *APIError.
package jellyseerr
