package cmd

import (
	"fmt"

	"github.com/s0up4200/jellyrequest/filter"
	"github.com/s0up4200/jellyrequest/httpclient"
	"github.com/s0up4200/jellyrequest/imdb"
	"github.com/s0up4200/jellyrequest/jellyseerr"
	"github.com/s0up4200/jellyrequest/metrics"
	"github.com/s0up4200/jellyrequest/reconcile"
	"github.com/s0up4200/jellyrequest/runner"
)

func newJellyseerrClient() (*jellyseerr.Client, error) {
	client, err := jellyseerr.NewClient(cfg.Jellyseerr.URL, cfg.Jellyseerr.APIKey, logger,
		jellyseerr.WithTimeout(cfg.Jellyseerr.Timeout),
		jellyseerr.WithRetry(cfg.Jellyseerr.MaxRetries, httpclient.DefaultRetryWaitMin, httpclient.DefaultRetryWaitMax),
		jellyseerr.WithRateLimit(cfg.Jellyseerr.RateLimit, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jellyseerr client: %w", err)
	}
	return client, nil
}

func newFetcher() *imdb.Fetcher {
	return imdb.NewFetcher(imdb.FetcherConfig{
		UserAgent:  cfg.IMDb.UserAgent,
		Timeout:    cfg.IMDb.Timeout,
		MaxRetries: cfg.IMDb.MaxRetries,
	}, logger)
}

// newRunner wires the fetcher, catalog client, filter and metrics into a Runner
func newRunner(client *jellyseerr.Client, recorder *metrics.Recorder) (*runner.Runner, error) {
	f, err := filter.Compile(cfg.Filter.Expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	reconciler := reconcile.New(client, reconcile.Options{
		Request: cfg.Request.Options(),
		Filter:  f,
		DryRun:  cfg.Safety.DryRun,
	}, logger)

	return runner.New(newFetcher(), reconciler, recorder, runner.Config{
		ListingURL: cfg.IMDb.URL,
		Limit:      cfg.IMDb.Limit,
	}, logger), nil
}
