package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/jellyrequest/config"
	applog "github.com/s0up4200/jellyrequest/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"

	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	logSink *applog.Logger

	// Command flags
	dryRun bool
	limit  int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "jellyrequest",
	Short: "Request trending IMDb movies in Jellyseerr",
	Long: `jellyrequest periodically reads the IMDb most popular movies chart and
requests every title that is neither available nor already requested in
Jellyseerr. Without a subcommand it runs the scheduled loop.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  initializeApp,
	RunE:               runDaemon,
}

// SetVersion sets the version information reported by the binary
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, bt)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := executeContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// executeContext runs the command tree. The log sink is closed on every exit
// path since cobra skips post-run hooks when a command fails.
func executeContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := closeApp(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "log what would be requested without requesting")
	rootCmd.PersistentFlags().IntVarP(&limit, "limit", "l", 0, "number of listing movies to consider (overrides imdb.limit)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}
	if cmd.Flags().Changed("limit") {
		if limit <= 0 {
			return fmt.Errorf("--limit must be a positive integer, got %d", limit)
		}
		cfg.IMDb.Limit = limit
	}

	// Setup logger
	logSink, err = setupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger = logSink.Logger

	logBanner()
	return nil
}

func closeApp() error {
	if logSink == nil {
		return nil
	}
	err := logSink.Close()
	logSink = nil
	return err
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) (*applog.Logger, error) {
	return applog.New(applog.Config{
		Level:      cfg.Level,
		Verbosity:  cfg.Verbosity,
		Format:     cfg.Format,
		Color:      cfg.Color,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
}

// logBanner logs the version and the effective settings once at startup
func logBanner() {
	logger.Info().
		Str("version", version).
		Str("build_time", buildTime).
		Msg("jellyrequest starting")

	event := logger.Info().
		Str("jellyseerr_url", cfg.Jellyseerr.URL).
		Str("listing_url", cfg.IMDb.URL).
		Int("limit", cfg.IMDb.Limit).
		Int("interval_days", cfg.Schedule.IntervalDays).
		Bool("4k", cfg.Request.Is4K).
		Bool("auto_approve", cfg.Request.AutoApprove).
		Bool("dry_run", cfg.Safety.DryRun).
		Str("verbosity", cfg.Logging.Verbosity)
	if cfg.Filter.Expression != "" {
		event = event.Str("filter", cfg.Filter.Expression)
	}
	if cfg.Logging.File != "" {
		event = event.Str("log_file", cfg.Logging.File)
	}
	event.Msg("Effective settings")
}

// versionCmd prints version information without loading configuration
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "jellyrequest %s (built %s)\n", version, buildTime)
	},
}
