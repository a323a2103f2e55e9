package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/jellyrequest/reconcile"
)

// onceCmd represents the once command
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Perform a single run and exit",
	Long:  `Fetch the listing, request what is missing, print a summary and exit. Exits non-zero if the run fails.`,
	RunE:  runOnce,
}

func runOnce(cmd *cobra.Command, args []string) error {
	client, err := newJellyseerrClient()
	if err != nil {
		return err
	}

	r, err := newRunner(client, nil)
	if err != nil {
		return err
	}

	result, runErr := r.RunOnce(cmd.Context())
	fmt.Fprint(cmd.OutOrStdout(), reconcile.NewConsoleFormatter().FormatResult(result))

	return runErr
}
