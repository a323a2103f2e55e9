// Package imdb fetches a ranked movie listing page (the IMDb "most popular"
// chart by default) and extracts the movies it lists.
//
// Fetching and extraction are deliberately separate: Fetcher performs the only
// network I/O, Extract is a pure function over the fetched markup so it can be
// verified against captured pages.
//
// Extraction tries the page's JSON-LD ItemList first and falls back to a set of
// tolerant CSS selectors over the rendered list when no structured data is
// present. Changes to the source layout should only ever touch this package.
package imdb
