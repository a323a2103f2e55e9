package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/jellyrequest/reconcile"
	"github.com/s0up4200/jellyrequest/runner"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Print the movies extracted from the listing",
	Long:  `Fetch and parse the listing page without contacting Jellyseerr. Useful to check that extraction still works.`,
	RunE:  runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	r := runner.New(newFetcher(), nil, nil, runner.Config{
		ListingURL: cfg.IMDb.URL,
		Limit:      cfg.IMDb.Limit,
	}, logger)

	movies, err := r.Scrape(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), reconcile.NewConsoleFormatter().FormatMovieList(movies))
	return nil
}
