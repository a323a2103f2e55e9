package imdb

import (
	"fmt"
	"regexp"
)

// DefaultChartURL is the listing consumed when none is configured
const DefaultChartURL = "https://www.imdb.com/chart/moviemeter"

// DefaultLimit is the number of movies extracted when none is configured
const DefaultLimit = 50

var titleIDPattern = regexp.MustCompile(`/title/(tt\d+)`)

// Movie is a movie identity taken from the listing
type Movie struct {
	Title      string
	ExternalID string
	Rank       int
}

// String returns a short human-readable form used in logs
func (m Movie) String() string {
	return fmt.Sprintf("#%d %s (%s)", m.Rank, m.Title, m.ExternalID)
}

// TitleIDFromURL extracts the "tt" identifier from an IMDb title link.
// Returns an empty string if the link does not point at a title.
func TitleIDFromURL(link string) string {
	match := titleIDPattern.FindStringSubmatch(link)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
