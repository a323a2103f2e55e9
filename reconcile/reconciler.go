// Package reconcile decides, title by title, whether a trending movie must be
// requested and records the outcome of every decision.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/s0up4200/jellyrequest/filter"
	"github.com/s0up4200/jellyrequest/imdb"
	"github.com/s0up4200/jellyrequest/jellyseerr"
)

// Catalog is the part of the request service the reconciler depends on
type Catalog interface {
	Search(ctx context.Context, movie imdb.Movie) (*jellyseerr.SearchResult, error)
	RequestMedia(ctx context.Context, tmdbID int, opts jellyseerr.RequestOptions) (*jellyseerr.RequestOutcome, error)
}

// Options controls how requests are made
type Options struct {
	Request jellyseerr.RequestOptions
	// Filter may be nil to allow every title
	Filter *filter.Filter
	// DryRun records what would be requested without calling the service
	DryRun bool
}

// Reconciler compares listing movies against the catalog and requests what is missing
type Reconciler struct {
	catalog Catalog
	opts    Options
	logger  zerolog.Logger
}

// New creates a Reconciler
func New(catalog Catalog, opts Options, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		catalog: catalog,
		opts:    opts,
		logger:  logger.With().Str("component", "reconcile").Logger(),
	}
}

// Reconcile processes movies in rank order and folds each outcome into result.
//
// Per-title failures are recorded and never abort the run. A rejected API key
// or a cancelled context stops processing and returns the error; result then
// holds the titles handled so far.
func (r *Reconciler) Reconcile(ctx context.Context, movies []imdb.Movie, result *Result) error {
	result.Total = len(movies)

	for _, movie := range movies {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}

		item, err := r.reconcileOne(ctx, movie)
		if err != nil {
			return err
		}
		result.Record(item)
	}

	return nil
}

// reconcileOne returns an error only when the run must stop
func (r *Reconciler) reconcileOne(ctx context.Context, movie imdb.Movie) (Item, error) {
	log := r.logger.With().
		Int("rank", movie.Rank).
		Str("title", movie.Title).
		Str("imdb_id", movie.ExternalID).
		Logger()

	item := Item{Movie: movie}

	entry, err := r.catalog.Search(ctx, movie)
	if err != nil {
		if abort := fatal(ctx, err); abort != nil {
			return item, abort
		}
		if errors.Is(err, jellyseerr.ErrNoMatch) {
			log.Warn().Msg("No match in request service")
		} else {
			log.Error().Err(err).Msg("Search failed")
		}
		item.Outcome = OutcomeSearchFailed
		item.Err = err
		return item, nil
	}

	item.TMDBID = entry.TMDBID
	log = log.With().Int("tmdb_id", entry.TMDBID).Logger()

	if status := entry.StatusFor(r.opts.Request.Is4K); status.Satisfied() {
		if status.Availability != jellyseerr.AvailabilityAbsent {
			log.Debug().Stringer("availability", status.Availability).Msg("Already available")
			item.Outcome = OutcomeAlreadyAvailable
		} else {
			log.Debug().Stringer("request", status.Request).Msg("Already requested")
			item.Outcome = OutcomeAlreadyRequested
		}
		return item, nil
	}

	allowed, err := r.opts.Filter.Allow(filter.Candidate{
		Title:      movie.Title,
		ExternalID: movie.ExternalID,
		Rank:       movie.Rank,
		Year:       entry.Year,
		TMDBID:     entry.TMDBID,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Filter evaluation failed, skipping")
	}
	if !allowed {
		log.Debug().Str("filter", r.opts.Filter.Expression()).Msg("Excluded by filter")
		item.Outcome = OutcomeFiltered
		return item, nil
	}

	if r.opts.DryRun {
		log.Info().Bool("4k", r.opts.Request.Is4K).Msg("DRY RUN: would request")
		item.Outcome = OutcomeDryRun
		return item, nil
	}

	outcome, err := r.catalog.RequestMedia(ctx, entry.TMDBID, r.opts.Request)
	if err != nil {
		if abort := fatal(ctx, err); abort != nil {
			return item, abort
		}
		log.Error().Err(err).Msg("Request failed")
		item.Outcome = OutcomeRequestFailed
		item.Err = err
		return item, nil
	}

	if outcome.Duplicate {
		log.Info().Str("message", outcome.Message).Msg("Request already exists")
		item.Outcome = OutcomeAlreadyRequested
		return item, nil
	}

	log.Info().
		Int("request_id", outcome.RequestID).
		Stringer("status", outcome.Status).
		Bool("approved", outcome.Approved).
		Bool("4k", r.opts.Request.Is4K).
		Msg("Requested")
	item.Outcome = OutcomeRequested
	return item, nil
}

// fatal reports whether err must stop the whole run
func fatal(ctx context.Context, err error) error {
	if jellyseerr.IsAuthError(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("run interrupted: %w", ctxErr)
	}
	return nil
}
