// Package runner performs one complete run: fetch the listing, extract the
// movies, reconcile them against the request service and report the result.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/s0up4200/jellyrequest/imdb"
	"github.com/s0up4200/jellyrequest/jellyseerr"
	"github.com/s0up4200/jellyrequest/metrics"
	"github.com/s0up4200/jellyrequest/reconcile"
)

// Run-level failure causes, wrapped around the underlying error
var (
	ErrSourceUnreachable = errors.New("could not reach listing source")
	ErrLayoutChanged     = errors.New("listing layout changed")
	ErrAuthRejected      = errors.New("request service rejected API key")
)

// Source fetches the raw listing document
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config describes the listing to consume
type Config struct {
	ListingURL string
	Limit      int
}

// Runner executes runs. It holds no state between runs.
type Runner struct {
	source     Source
	reconciler *reconcile.Reconciler
	metrics    *metrics.Recorder
	cfg        Config
	logger     zerolog.Logger
}

// New creates a Runner. recorder may be nil.
func New(source Source, reconciler *reconcile.Reconciler, recorder *metrics.Recorder, cfg Config, logger zerolog.Logger) *Runner {
	if cfg.ListingURL == "" {
		cfg.ListingURL = imdb.DefaultChartURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = imdb.DefaultLimit
	}

	return &Runner{
		source:     source,
		reconciler: reconciler,
		metrics:    recorder,
		cfg:        cfg,
		logger:     logger,
	}
}

// Scrape fetches the listing and extracts up to the configured number of movies
func (r *Runner) Scrape(ctx context.Context) ([]imdb.Movie, error) {
	return r.scrape(ctx, r.logger)
}

func (r *Runner) scrape(ctx context.Context, log zerolog.Logger) ([]imdb.Movie, error) {
	doc, err := r.source.Fetch(ctx, r.cfg.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreachable, err)
	}
	log.Debug().Int("bytes", len(doc)).Str("url", r.cfg.ListingURL).Msg("Fetched listing")

	movies, err := imdb.Extract(doc, r.cfg.Limit, log)
	if err != nil {
		var extractErr *imdb.ExtractionError
		if errors.As(err, &extractErr) {
			return nil, fmt.Errorf("%w: %w", ErrLayoutChanged, err)
		}
		return nil, err
	}

	log.Info().Int("movies", len(movies)).Int("limit", r.cfg.Limit).Msg("Extracted movies from listing")
	return movies, nil
}

// RunOnce performs one run. The returned result is never nil; on failure it
// holds whatever was processed before the run stopped.
func (r *Runner) RunOnce(ctx context.Context) (*reconcile.Result, error) {
	result := reconcile.NewResult()
	log := r.logger.With().Str("run_id", result.ID).Logger()

	log.Info().Time("started_at", result.StartedAt).Msg("Run started")

	err := r.run(ctx, log, result)
	result.Finish()
	r.metrics.ObserveRun(result, err)

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event.
		Object("summary", result).
		Time("finished_at", result.FinishedAt).
		Dur("duration", result.Duration()).
		Msg("Run finished")

	return result, err
}

func (r *Runner) run(ctx context.Context, log zerolog.Logger, result *reconcile.Result) error {
	movies, err := r.scrape(ctx, log)
	if err != nil {
		return err
	}

	if err := r.reconciler.Reconcile(ctx, movies, result); err != nil {
		if jellyseerr.IsAuthError(err) {
			return fmt.Errorf("%w: %w", ErrAuthRejected, err)
		}
		return err
	}
	return nil
}
