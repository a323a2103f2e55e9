package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/jellyrequest/jellyseerr"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to Jellyseerr",
	Long:  `Verify that Jellyseerr is reachable and accepts the configured API key.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Testing connection to Jellyseerr at %s...\n", cfg.Jellyseerr.URL)

	client, err := newJellyseerrClient()
	if err != nil {
		return err
	}

	user, err := client.CurrentUser(cmd.Context())
	if err != nil {
		if jellyseerr.IsAuthError(err) {
			return fmt.Errorf("API key rejected: %w", err)
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Connection successful!")
	fmt.Fprintf(out, "- Authenticated as: %s (ID: %d)\n", user.GetDisplayName(), user.ID)
	fmt.Fprintf(out, "- 4K requests: %s\n", boolToStatus(cfg.Request.Is4K))
	fmt.Fprintf(out, "- Auto-approve: %s\n", boolToStatus(cfg.Request.AutoApprove))
	fmt.Fprintf(out, "- Dry run: %s\n", boolToStatus(cfg.Safety.DryRun))

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
