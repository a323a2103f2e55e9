package imdb

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// itemSelectors locate repeating listing items, most specific first.
// The first selector producing any item wins.
var itemSelectors = []string{
	"ul.ipc-metadata-list li.ipc-metadata-list-summary-item",
	"li.ipc-metadata-list-summary-item",
	"[data-testid='chart-layout-main-column'] li",
	"td.titleColumn",
	".lister-list .lister-item",
	".lister-item",
}

var (
	rankPrefix = regexp.MustCompile(`^\d+\.\s+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// jsonLDList is the subset of a schema.org ItemList we read
type jsonLDList struct {
	Type            string `json:"@type"`
	ItemListElement []struct {
		Position int `json:"position"`
		Item     struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"item"`
	} `json:"itemListElement"`
}

// candidate is a listing item before validation
type candidate struct {
	title string
	id    string
}

// Extract parses a listing document into at most limit movies in document order.
// Items missing a title or identifier, and repeated identifiers, are skipped.
// An *ExtractionError is returned when nothing could be extracted.
func Extract(doc []byte, limit int, logger zerolog.Logger) ([]Movie, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, &ExtractionError{Reason: "document is not parseable HTML", Err: err}
	}

	source := "json-ld"
	movies := collect(fromJSONLD(root, logger), limit, logger)
	if len(movies) == 0 {
		source = "html"
		movies = collect(fromMarkup(root, logger), limit, logger)
	}
	if len(movies) == 0 {
		return nil, &ExtractionError{Reason: "no listing items recognized, the page layout likely changed"}
	}

	logger.Debug().
		Str("source", source).
		Int("extracted", len(movies)).
		Msg("Extracted movies from listing")

	return movies, nil
}

// collect validates candidates, drops duplicates and assigns ranks
func collect(candidates []candidate, limit int, logger zerolog.Logger) []Movie {
	movies := make([]Movie, 0, min(limit, len(candidates)))
	seen := make(map[string]struct{}, len(candidates))

	for i, c := range candidates {
		if len(movies) >= limit {
			break
		}
		if c.title == "" || c.id == "" {
			logger.Debug().
				Int("position", i+1).
				Str("title", c.title).
				Str("id", c.id).
				Msg("Skipping listing item missing title or identifier")
			continue
		}
		if _, dup := seen[c.id]; dup {
			logger.Debug().Str("id", c.id).Str("title", c.title).Msg("Skipping duplicate listing item")
			continue
		}
		seen[c.id] = struct{}{}
		movies = append(movies, Movie{
			Title:      c.title,
			ExternalID: c.id,
			Rank:       len(movies) + 1,
		})
	}

	return movies
}

func fromJSONLD(root *goquery.Document, logger zerolog.Logger) []candidate {
	var out []candidate

	root.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var list jsonLDList
		if err := json.Unmarshal([]byte(s.Text()), &list); err != nil {
			logger.Debug().Err(err).Msg("Ignoring unparseable JSON-LD block")
			return true
		}
		if len(list.ItemListElement) == 0 {
			return true
		}
		for _, el := range list.ItemListElement {
			out = append(out, candidate{
				title: cleanTitle(el.Item.Name),
				id:    TitleIDFromURL(el.Item.URL),
			})
		}
		return false
	})

	return out
}

func fromMarkup(root *goquery.Document, logger zerolog.Logger) []candidate {
	for _, selector := range itemSelectors {
		items := root.Find(selector)
		if items.Length() == 0 {
			continue
		}

		logger.Debug().Str("selector", selector).Int("items", items.Length()).Msg("Matched listing items")

		out := make([]candidate, 0, items.Length())
		items.Each(func(_ int, item *goquery.Selection) {
			out = append(out, itemCandidate(item))
		})
		return out
	}
	return nil
}

// itemCandidate reads the identifier and title out of one listing item
func itemCandidate(item *goquery.Selection) candidate {
	var c candidate

	link := item.Find(`a[href*="/title/tt"]`).First()
	if href, ok := link.Attr("href"); ok {
		c.id = TitleIDFromURL(href)
	}

	if heading := item.Find("h3, h4").First(); heading.Length() > 0 {
		c.title = cleanTitle(heading.Text())
	}
	if c.title == "" {
		link.Each(func(_ int, a *goquery.Selection) {
			c.title = cleanTitle(a.Text())
		})
	}
	if c.title == "" {
		if alt, ok := item.Find("img[alt]").First().Attr("alt"); ok {
			c.title = cleanTitle(alt)
		}
	}

	return c
}

// cleanTitle decodes entities, collapses whitespace and strips a leading "12. " rank
func cleanTitle(s string) string {
	s = html.UnescapeString(s)
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	return rankPrefix.ReplaceAllString(s, "")
}
