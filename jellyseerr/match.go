package jellyseerr

import (
	"html"
	"regexp"
	"strings"

	"github.com/s0up4200/jellyrequest/imdb"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// NormalizeTitle lowercases a title and strips punctuation so that
// "Dune: Part Two" and "dune part two" compare equal.
func NormalizeTitle(title string) string {
	title = html.UnescapeString(title)
	title = nonWord.ReplaceAllString(strings.ToLower(title), "")
	return strings.Join(strings.Fields(title), " ")
}

// matchMovie picks the search item that best corresponds to a listing movie.
// An IMDb id match wins, then an exact normalized title, then the first item
// whose normalized title contains the normalized listing title.
func matchMovie(movie imdb.Movie, items []SearchItem) *SearchItem {
	var movies []*SearchItem
	for i := range items {
		item := &items[i]
		if !item.MediaType.IsMovie() || item.ID == 0 || item.Title == "" {
			continue
		}
		movies = append(movies, item)
	}

	if movie.ExternalID != "" {
		for _, item := range movies {
			if item.MediaInfo != nil && strings.EqualFold(item.MediaInfo.ImdbID, movie.ExternalID) {
				return item
			}
		}
	}

	want := NormalizeTitle(movie.Title)
	if want == "" {
		return nil
	}

	for _, item := range movies {
		if NormalizeTitle(item.Title) == want || NormalizeTitle(item.OriginalTitle) == want {
			return item
		}
	}

	for _, item := range movies {
		if strings.Contains(NormalizeTitle(item.Title), want) {
			return item
		}
	}

	return nil
}

// resolve converts a matched search item into a SearchResult
func resolve(item *SearchItem) *SearchResult {
	result := &SearchResult{
		TMDBID: item.ID,
		Title:  item.Title,
		Year:   item.Year(),
	}

	if item.MediaInfo == nil {
		return result
	}

	info := item.MediaInfo
	result.MediaID = info.ID
	if info.TmdbID != 0 {
		result.TMDBID = info.TmdbID
	}
	result.Standard = statusOf(info.Status, info.Requests, false)
	result.UHD = statusOf(info.Status4k, info.Requests, true)

	return result
}

func statusOf(media MediaStatus, requests []MediaRequest, is4k bool) Status {
	var status Status

	switch media {
	case MediaStatusAvailable:
		status.Availability = AvailabilityAvailable
	case MediaStatusPartiallyAvailable:
		status.Availability = AvailabilityPartial
	}

	for _, req := range requests {
		if req.Is4k != is4k {
			continue
		}
		switch req.Status {
		case RequestStatusApproved, RequestStatusCompleted:
			status.Request = RequestApproved
		case RequestStatusPending:
			if status.Request != RequestApproved {
				status.Request = RequestPending
			}
		case RequestStatusDeclined:
			if status.Request == RequestNone {
				status.Request = RequestDeclined
			}
		}
	}

	if status.Request == RequestNone {
		switch media {
		case MediaStatusPending:
			status.Request = RequestPending
		case MediaStatusProcessing:
			status.Request = RequestApproved
		case MediaStatusBlacklisted:
			status.Request = RequestBlocked
		}
	}

	return status
}
