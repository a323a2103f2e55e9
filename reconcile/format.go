package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/s0up4200/jellyrequest/imdb"
)

// ConsoleFormatter renders listings and run results for the terminal
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatMovieList formats extracted movies in rank order
func (f *ConsoleFormatter) FormatMovieList(movies []imdb.Movie) string {
	if len(movies) == 0 {
		return "No movies found"
	}

	var sb strings.Builder

	sb.WriteString("\nMovie")
	if len(movies) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(movies))

	for i, movie := range movies {
		prefix := "├"
		if i == len(movies)-1 {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %3d. %s [%s]\n", prefix, movie.Rank, movie.Title, movie.ExternalID)
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatResult formats a run summary followed by the titles that need attention
func (f *ConsoleFormatter) FormatResult(result *Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\nRun %s (%s)\n\n", result.ID, result.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "  Total:             %d\n", result.Total)
	fmt.Fprintf(&sb, "  Already available: %d\n", result.AlreadyAvailable)
	fmt.Fprintf(&sb, "  Already requested: %d\n", result.AlreadyRequested)
	fmt.Fprintf(&sb, "  Requested:         %d\n", result.Requested)
	fmt.Fprintf(&sb, "  Search failed:     %d\n", result.SearchFailed)
	fmt.Fprintf(&sb, "  Request failed:    %d\n", result.RequestFailed)
	if result.Filtered > 0 {
		fmt.Fprintf(&sb, "  Filtered:          %d\n", result.Filtered)
	}
	if result.DryRun > 0 {
		fmt.Fprintf(&sb, "  Would request:     %d\n", result.DryRun)
	}

	var notable []Item
	for _, item := range result.Items {
		switch item.Outcome {
		case OutcomeRequested, OutcomeDryRun, OutcomeSearchFailed, OutcomeRequestFailed:
			notable = append(notable, item)
		}
	}
	if len(notable) == 0 {
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("\n")
	for i, item := range notable {
		isLast := i == len(notable)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %s (%s)\n", prefix, item.Movie.Title, item.Outcome)

		indent := "│   "
		if isLast {
			indent = "    "
		}
		if item.Err != nil {
			fmt.Fprintf(&sb, "%sError: %v\n", indent, item.Err)
		}
	}

	sb.WriteString("\n")
	return sb.String()
}
