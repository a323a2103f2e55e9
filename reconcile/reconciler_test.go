package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/jellyrequest/filter"
	"github.com/s0up4200/jellyrequest/imdb"
	"github.com/s0up4200/jellyrequest/jellyseerr"
)

// fakeCatalog answers searches from a map keyed by IMDb id
type fakeCatalog struct {
	entries    map[string]*jellyseerr.SearchResult
	searchErrs map[string]error
	requestErr map[int]error
	duplicates map[int]bool

	searched  []string
	requested []int
	onSearch  func(imdb.Movie)
}

func (f *fakeCatalog) Search(_ context.Context, movie imdb.Movie) (*jellyseerr.SearchResult, error) {
	f.searched = append(f.searched, movie.ExternalID)
	if f.onSearch != nil {
		f.onSearch(movie)
	}
	if err := f.searchErrs[movie.ExternalID]; err != nil {
		return nil, err
	}
	entry, ok := f.entries[movie.ExternalID]
	if !ok {
		return nil, jellyseerr.ErrNoMatch
	}
	return entry, nil
}

func (f *fakeCatalog) RequestMedia(_ context.Context, tmdbID int, _ jellyseerr.RequestOptions) (*jellyseerr.RequestOutcome, error) {
	f.requested = append(f.requested, tmdbID)
	if err := f.requestErr[tmdbID]; err != nil {
		return nil, err
	}
	if f.duplicates[tmdbID] {
		return &jellyseerr.RequestOutcome{Duplicate: true}, nil
	}
	return &jellyseerr.RequestOutcome{RequestID: 1, Status: jellyseerr.RequestStatusPending}, nil
}

func movies(ids ...string) []imdb.Movie {
	out := make([]imdb.Movie, len(ids))
	for i, id := range ids {
		out[i] = imdb.Movie{Title: "Movie " + id, ExternalID: id, Rank: i + 1}
	}
	return out
}

func absent(tmdbID int) *jellyseerr.SearchResult {
	return &jellyseerr.SearchResult{TMDBID: tmdbID}
}

func available(tmdbID int) *jellyseerr.SearchResult {
	return &jellyseerr.SearchResult{
		TMDBID:   tmdbID,
		Standard: jellyseerr.Status{Availability: jellyseerr.AvailabilityAvailable},
		UHD:      jellyseerr.Status{Availability: jellyseerr.AvailabilityAvailable},
	}
}

func run(t *testing.T, catalog Catalog, opts Options, list []imdb.Movie) (*Result, error) {
	t.Helper()
	result := NewResult()
	err := New(catalog, opts, zerolog.Nop()).Reconcile(context.Background(), list, result)
	return result, err
}

func TestReconcileScenario(t *testing.T) {
	// A is available, B is absent, C has no match
	catalog := &fakeCatalog{
		entries: map[string]*jellyseerr.SearchResult{
			"tt1": available(101),
			"tt2": absent(102),
		},
	}

	result, err := run(t, catalog, Options{Request: jellyseerr.RequestOptions{Is4K: true}}, movies("tt1", "tt2", "tt3"))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.AlreadyAvailable)
	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, 1, result.SearchFailed)
	assert.Equal(t, 0, result.RequestFailed)
	assert.Equal(t, 3, result.Processed())
	assert.Equal(t, []int{102}, catalog.requested)
}

func TestReconcileAvailableNeverRequested(t *testing.T) {
	partial := &jellyseerr.SearchResult{
		TMDBID: 7,
		UHD:    jellyseerr.Status{Availability: jellyseerr.AvailabilityPartial},
	}
	catalog := &fakeCatalog{
		entries: map[string]*jellyseerr.SearchResult{"tt1": available(5), "tt2": partial},
	}

	result, err := run(t, catalog, Options{Request: jellyseerr.RequestOptions{Is4K: true}}, movies("tt1", "tt2"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.AlreadyAvailable)
	assert.Empty(t, catalog.requested)
}

func TestReconcileExistingRequests(t *testing.T) {
	tests := []struct {
		name    string
		request jellyseerr.ExistingRequest
	}{
		{"pending", jellyseerr.RequestPending},
		{"approved", jellyseerr.RequestApproved},
		{"declined", jellyseerr.RequestDeclined},
		{"blacklisted", jellyseerr.RequestBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &fakeCatalog{
				entries: map[string]*jellyseerr.SearchResult{
					"tt1": {TMDBID: 1, Standard: jellyseerr.Status{Request: tt.request}},
				},
			}

			result, err := run(t, catalog, Options{}, movies("tt1"))
			require.NoError(t, err)
			assert.Equal(t, 1, result.AlreadyRequested)
			assert.Empty(t, catalog.requested)
		})
	}
}

func TestReconcileUsesConfiguredTier(t *testing.T) {
	// available in HD only, a 4K request is still needed
	entry := &jellyseerr.SearchResult{
		TMDBID:   9,
		Standard: jellyseerr.Status{Availability: jellyseerr.AvailabilityAvailable},
	}
	catalog := &fakeCatalog{entries: map[string]*jellyseerr.SearchResult{"tt1": entry}}

	result, err := run(t, catalog, Options{Request: jellyseerr.RequestOptions{Is4K: true}}, movies("tt1"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, []int{9}, catalog.requested)
}

func TestReconcileExactlyOneRequest(t *testing.T) {
	catalog := &fakeCatalog{entries: map[string]*jellyseerr.SearchResult{"tt1": absent(42)}}

	result, err := run(t, catalog, Options{}, movies("tt1"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Requested)
	assert.Equal(t, []int{42}, catalog.requested)
}

func TestReconcileSearchFailureIsolated(t *testing.T) {
	catalog := &fakeCatalog{
		entries: map[string]*jellyseerr.SearchResult{
			"tt1": absent(1), "tt2": absent(2), "tt3": absent(3), "tt4": absent(4), "tt5": absent(5),
		},
		searchErrs: map[string]error{
			"tt3": &jellyseerr.APIError{StatusCode: 500, Message: "boom"},
		},
	}

	result, err := run(t, catalog, Options{}, movies("tt1", "tt2", "tt3", "tt4", "tt5"))
	require.NoError(t, err)

	assert.Equal(t, []string{"tt1", "tt2", "tt3", "tt4", "tt5"}, catalog.searched)
	assert.Equal(t, []int{1, 2, 4, 5}, catalog.requested)
	assert.Equal(t, 4, result.Requested)
	assert.Equal(t, 1, result.SearchFailed)

	require.Len(t, result.Items, 5)
	assert.Equal(t, OutcomeSearchFailed, result.Items[2].Outcome)
	assert.Equal(t, "tt3", result.Items[2].Movie.ExternalID)
	assert.Error(t, result.Items[2].Err)
}

func TestReconcileRequestFailure(t *testing.T) {
	catalog := &fakeCatalog{
		entries:    map[string]*jellyseerr.SearchResult{"tt1": absent(1), "tt2": absent(2), "tt3": absent(3)},
		requestErr: map[int]error{1: &jellyseerr.APIError{StatusCode: 403, Message: "quota exceeded"}},
		duplicates: map[int]bool{2: true},
	}

	result, err := run(t, catalog, Options{}, movies("tt1", "tt2", "tt3"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.RequestFailed)
	assert.Equal(t, 1, result.AlreadyRequested)
	assert.Equal(t, 1, result.Requested)
}

func TestReconcileAuthErrorAborts(t *testing.T) {
	t.Run("on first search", func(t *testing.T) {
		catalog := &fakeCatalog{
			searchErrs: map[string]error{"tt1": &jellyseerr.AuthError{StatusCode: 401}},
		}

		result, err := run(t, catalog, Options{}, movies("tt1", "tt2"))
		require.Error(t, err)
		assert.ErrorIs(t, err, jellyseerr.ErrUnauthorized)
		assert.Equal(t, 0, result.Processed())
		assert.Equal(t, []string{"tt1"}, catalog.searched)
	})

	t.Run("on request", func(t *testing.T) {
		catalog := &fakeCatalog{
			entries:    map[string]*jellyseerr.SearchResult{"tt1": available(1), "tt2": absent(2), "tt3": absent(3)},
			requestErr: map[int]error{2: &jellyseerr.AuthError{StatusCode: 401}},
		}

		result, err := run(t, catalog, Options{}, movies("tt1", "tt2", "tt3"))
		require.Error(t, err)
		assert.True(t, jellyseerr.IsAuthError(err))
		assert.Equal(t, 1, result.Processed())
		assert.Equal(t, 3, result.Total)
	})
}

func TestReconcileApprovalForbiddenKeepsRunning(t *testing.T) {
	var posts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/search":
			fmt.Fprintf(w, `{"page":1,"totalPages":1,"totalResults":1,"results":[{"id":%d,"mediaType":"movie","title":%q}]}`,
				100+len(r.URL.Query().Get("query")), r.URL.Query().Get("query"))
		case "/api/v1/request":
			posts.Add(1)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": 5, "status": 1}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"You do not have permission"}`))
		}
	}))
	t.Cleanup(server.Close)

	client, err := jellyseerr.NewClient(server.URL, "test-key", zerolog.Nop(),
		jellyseerr.WithRetry(0, time.Millisecond, time.Millisecond),
		jellyseerr.WithRateLimit(0, 0))
	require.NoError(t, err)

	list := []imdb.Movie{
		{Title: "First", ExternalID: "tt1", Rank: 1},
		{Title: "Second Film", ExternalID: "tt2", Rank: 2},
	}
	result, err := run(t, client, Options{Request: jellyseerr.RequestOptions{AutoApprove: true}}, list)
	require.NoError(t, err)

	assert.Equal(t, int32(2), posts.Load())
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 2, result.Processed())
}

func TestReconcileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog := &fakeCatalog{
		entries: map[string]*jellyseerr.SearchResult{"tt1": absent(1), "tt2": absent(2), "tt3": absent(3)},
		onSearch: func(movie imdb.Movie) {
			if movie.ExternalID == "tt2" {
				cancel()
			}
		},
	}

	result := NewResult()
	err := New(catalog, Options{}, zerolog.Nop()).Reconcile(ctx, movies("tt1", "tt2", "tt3"), result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	// tt2 finished its search before the cancel was observed
	assert.Equal(t, []string{"tt1", "tt2"}, catalog.searched)
	assert.LessOrEqual(t, result.Processed(), 2)
}

func TestReconcileFilterAndDryRun(t *testing.T) {
	f, err := filter.Compile(`Rank <= 2`)
	require.NoError(t, err)

	catalog := &fakeCatalog{
		entries: map[string]*jellyseerr.SearchResult{"tt1": absent(1), "tt2": absent(2), "tt3": absent(3)},
	}

	t.Run("filter", func(t *testing.T) {
		catalog.requested = nil
		result, err := run(t, catalog, Options{Filter: f}, movies("tt1", "tt2", "tt3"))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Requested)
		assert.Equal(t, 1, result.Filtered)
		assert.Equal(t, []int{1, 2}, catalog.requested)
	})

	t.Run("dry run", func(t *testing.T) {
		catalog.requested = nil
		result, err := run(t, catalog, Options{Filter: f, DryRun: true}, movies("tt1", "tt2", "tt3"))
		require.NoError(t, err)
		assert.Equal(t, 2, result.DryRun)
		assert.Equal(t, 1, result.Filtered)
		assert.Empty(t, catalog.requested)
	})
}

func TestResultRecord(t *testing.T) {
	result := NewResult()
	assert.NotEmpty(t, result.ID)

	for _, o := range Outcomes {
		result.Record(Item{Outcome: o})
	}
	result.Record(Item{Outcome: Outcome(99)})

	for _, o := range Outcomes {
		assert.Equal(t, 1, result.Count(o), o.String())
	}
	assert.Equal(t, len(Outcomes), result.Processed())
	assert.Len(t, result.Items, len(Outcomes))

	result.Finish()
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
}

func TestConsoleFormatter(t *testing.T) {
	f := NewConsoleFormatter()

	t.Run("movie list", func(t *testing.T) {
		assert.Equal(t, "No movies found", f.FormatMovieList(nil))

		out := f.FormatMovieList(movies("tt1", "tt2"))
		assert.Contains(t, out, "Movies (2)")
		assert.Contains(t, out, "├──   1. Movie tt1 [tt1]")
		assert.Contains(t, out, "╰──   2. Movie tt2 [tt2]")
	})

	t.Run("result", func(t *testing.T) {
		result := NewResult()
		result.Total = 2
		result.Record(Item{Movie: imdb.Movie{Title: "Dune"}, Outcome: OutcomeRequested})
		result.Record(Item{Movie: imdb.Movie{Title: "Heat"}, Outcome: OutcomeSearchFailed, Err: jellyseerr.ErrNoMatch})
		result.Finish()

		out := f.FormatResult(result)
		assert.Contains(t, out, result.ID)
		assert.Contains(t, out, "Requested:         1")
		assert.Contains(t, out, "├── Dune (requested)")
		assert.Contains(t, out, "╰── Heat (search_failed)")
		assert.Contains(t, out, "Error: no matching movie found")
	})
}
