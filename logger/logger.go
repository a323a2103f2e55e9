// Package logger builds the application's zerolog logger with an optional
// rotating log file alongside stdout.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Verbosity levels
const (
	VerbosityMinimal  = "minimal"
	VerbosityDetailed = "detailed"
)

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Logger wraps zerolog for application logging.
type Logger struct {
	zerolog.Logger
	rotator *lumberjack.Logger
}

// Config holds logger configuration.
type Config struct {
	Level     string
	Verbosity string // "minimal" or "detailed"
	Format    string // "console" or "json"
	Color     string // "auto", "always" or "never"

	File       string // log file path, empty disables the file sink
	MaxSizeMB  int    // max size in MB before rotation (default: 10)
	MaxBackups int    // max number of old log files to keep (default: 5)
	MaxAgeDays int    // max age in days to keep old files (default: 30)
	Compress   bool

	// Out defaults to os.Stdout
	Out io.Writer
}

// New creates a new logger instance.
func New(cfg Config) (*Logger, error) {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	var consoleOutput io.Writer
	if cfg.Format == "json" {
		consoleOutput = out
	} else {
		consoleOutput = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !useColor(cfg.Color, out),
		}
	}

	var output io.Writer = consoleOutput
	var rotator *lumberjack.Logger

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 30),
			Compress:   cfg.Compress,
			LocalTime:  true,
		}

		// The file always gets plain JSON lines
		output = zerolog.MultiLevelWriter(consoleOutput, rotator)
	}

	logger := zerolog.New(output).
		Level(EffectiveLevel(cfg.Level, cfg.Verbosity)).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger, rotator: rotator}, nil
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// EffectiveLevel combines the configured level with the verbosity.
// Detailed verbosity lowers the level to at least debug.
func EffectiveLevel(level, verbosity string) zerolog.Level {
	l := parseLevel(level)
	if NormalizeVerbosity(verbosity) == VerbosityDetailed && l > zerolog.DebugLevel {
		l = zerolog.DebugLevel
	}
	return l
}

// NormalizeVerbosity maps the accepted spellings to minimal or detailed.
// Unknown values fall back to minimal.
func NormalizeVerbosity(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "detailed", "verbose", "debug", "true":
		return VerbosityDetailed
	default:
		return VerbosityMinimal
	}
}

// ValidVerbosity reports whether v is one of the accepted spellings
func ValidVerbosity(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "minimal", "simple", "detailed", "verbose", "debug", "true", "false":
		return true
	default:
		return false
	}
}

// parseLevel converts string level to zerolog.Level
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func useColor(mode string, out io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
