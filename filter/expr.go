package filter

import (
	"strings"
	"time"
)

// Candidate is the data a filter expression sees for one matched title
type Candidate struct {
	Title      string
	ExternalID string
	Rank       int
	Year       int
	TMDBID     int
}

// addHelperFunctions adds all helper functions to the provided map
func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["yearsAgo"] = func(years int) int {
		return time.Now().AddDate(-years, 0, 0).Year()
	}
	env["now"] = time.Now
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

// environment builds the evaluation environment for a candidate
func environment(c Candidate) map[string]any {
	env := make(map[string]any, 16)
	addHelperFunctions(env)

	env["Title"] = c.Title
	env["ExternalID"] = c.ExternalID
	env["Rank"] = c.Rank
	env["Year"] = c.Year
	env["TMDBID"] = c.TMDBID

	return env
}
