package reconcile

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/s0up4200/jellyrequest/imdb"
)

// Outcome is the terminal state of one listing movie within a run
type Outcome int

const (
	OutcomeAlreadyAvailable Outcome = iota
	OutcomeAlreadyRequested
	OutcomeRequested
	OutcomeSearchFailed
	OutcomeRequestFailed
	OutcomeFiltered
	OutcomeDryRun
)

// Outcomes lists every outcome in reporting order
var Outcomes = []Outcome{
	OutcomeAlreadyAvailable,
	OutcomeAlreadyRequested,
	OutcomeRequested,
	OutcomeSearchFailed,
	OutcomeRequestFailed,
	OutcomeFiltered,
	OutcomeDryRun,
}

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyAvailable:
		return "already_available"
	case OutcomeAlreadyRequested:
		return "already_requested"
	case OutcomeRequested:
		return "requested"
	case OutcomeSearchFailed:
		return "search_failed"
	case OutcomeRequestFailed:
		return "request_failed"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeDryRun:
		return "dry_run"
	default:
		return "unknown"
	}
}

// Item records what happened to a single movie
type Item struct {
	Movie   imdb.Movie
	Outcome Outcome
	TMDBID  int
	Err     error
}

// Result accumulates the outcome counts of one run
type Result struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	Total            int
	AlreadyAvailable int
	AlreadyRequested int
	Requested        int
	SearchFailed     int
	RequestFailed    int
	Filtered         int
	DryRun           int

	Items []Item
}

// NewResult starts a result with a fresh run id
func NewResult() *Result {
	return &Result{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Record folds one item into the result. Each call increments exactly one counter.
func (r *Result) Record(item Item) {
	switch item.Outcome {
	case OutcomeAlreadyAvailable:
		r.AlreadyAvailable++
	case OutcomeAlreadyRequested:
		r.AlreadyRequested++
	case OutcomeRequested:
		r.Requested++
	case OutcomeSearchFailed:
		r.SearchFailed++
	case OutcomeRequestFailed:
		r.RequestFailed++
	case OutcomeFiltered:
		r.Filtered++
	case OutcomeDryRun:
		r.DryRun++
	default:
		return
	}
	r.Items = append(r.Items, item)
}

// Count returns the counter for an outcome
func (r *Result) Count(o Outcome) int {
	switch o {
	case OutcomeAlreadyAvailable:
		return r.AlreadyAvailable
	case OutcomeAlreadyRequested:
		return r.AlreadyRequested
	case OutcomeRequested:
		return r.Requested
	case OutcomeSearchFailed:
		return r.SearchFailed
	case OutcomeRequestFailed:
		return r.RequestFailed
	case OutcomeFiltered:
		return r.Filtered
	case OutcomeDryRun:
		return r.DryRun
	default:
		return 0
	}
}

// Processed returns how many movies reached a terminal outcome
func (r *Result) Processed() int {
	var n int
	for _, o := range Outcomes {
		n += r.Count(o)
	}
	return n
}

// Finish stamps the end time
func (r *Result) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns how long the run took, or the time elapsed so far
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (r *Result) MarshalZerologObject(e *zerolog.Event) {
	e.Int("total", r.Total).
		Int("processed", r.Processed()).
		Int("already_available", r.AlreadyAvailable).
		Int("already_requested", r.AlreadyRequested).
		Int("requested", r.Requested).
		Int("search_failed", r.SearchFailed).
		Int("request_failed", r.RequestFailed)
	if r.Filtered > 0 {
		e.Int("filtered", r.Filtered)
	}
	if r.DryRun > 0 {
		e.Int("dry_run", r.DryRun)
	}
}
