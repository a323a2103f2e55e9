package imdb

import (
	"errors"
	"fmt"
)

// ErrInvalidLimit is returned when the extraction limit is not positive
var ErrInvalidLimit = errors.New("extraction limit must be a positive integer")

// FetchError indicates the listing could not be retrieved
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("could not fetch listing %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("could not fetch listing %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("could not fetch listing %s", e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExtractionError indicates the document did not contain a recognizable listing.
// This usually means the page layout changed.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not extract movies from listing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("could not extract movies from listing: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
