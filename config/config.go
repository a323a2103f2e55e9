package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/jellyrequest/filter"
	"github.com/s0up4200/jellyrequest/imdb"
	"github.com/s0up4200/jellyrequest/logger"
)

// EnvPrefix is prepended to every key for environment overrides,
// e.g. JELLYREQUEST_LOGGING_LEVEL for logging.level.
const EnvPrefix = "JELLYREQUEST"

// envBindings lists every key together with the legacy environment names
// accepted for existing container setups. The prefixed name takes precedence.
var envBindings = map[string][]string{
	"jellyseerr.url":          {"JELLYSEERR_URL"},
	"jellyseerr.api_key":      {"JELLYSEERR_API_KEY", "API_KEY"},
	"imdb.url":                {"IMDB_URL"},
	"imdb.limit":              {"MOVIE_LIMIT"},
	"schedule.interval_days":  {"RUN_INTERVAL_DAYS"},
	"request.is_4k":           {"IS_4K_REQUEST"},
	"request.auto_approve":    {"AUTO_APPROVE"},
	"filter.expression":       {"FILTER_EXPRESSION"},
	"safety.dry_run":          {"DRY_RUN"},
	"logging.verbosity":       {"DEBUG_MODE"},
	"logging.file":            {"LOG_FILE"},
	"metrics.listen_addr":     {"METRICS_ADDR"},
	"jellyseerr.timeout":      nil,
	"jellyseerr.max_retries":  nil,
	"jellyseerr.rate_limit":   nil,
	"imdb.user_agent":         nil,
	"imdb.timeout":            nil,
	"imdb.max_retries":        nil,
	"request.server_id":       nil,
	"request.profile_id":      nil,
	"request.root_folder":     nil,
	"request.user_id":         nil,
	"logging.level":           nil,
	"logging.format":          nil,
	"logging.color":           nil,
	"logging.max_size_mb":     nil,
	"logging.max_backups":     nil,
	"logging.max_age_days":    nil,
}

// Load loads the configuration from defaults, an optional YAML file, a .env
// file and the environment.
//
// An explicit configPath must exist. Without one, config.yaml is looked up in
// the working directory, ~/.config/jellyrequest and /etc/jellyrequest and is
// optional.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "jellyrequest"))
		}
		v.AddConfigPath("/etc/jellyrequest/")
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports variables from a .env file without overriding the
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

func bindEnv(v *viper.Viper) error {
	for key, legacy := range envBindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		names := append([]string{key, prefixed}, legacy...)
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Jellyseerr defaults
	v.SetDefault("jellyseerr.timeout", "15s")
	v.SetDefault("jellyseerr.max_retries", 3)
	v.SetDefault("jellyseerr.rate_limit", 5)

	// Listing defaults
	v.SetDefault("imdb.url", imdb.DefaultChartURL)
	v.SetDefault("imdb.limit", imdb.DefaultLimit)
	v.SetDefault("imdb.user_agent", imdb.DefaultUserAgent)
	v.SetDefault("imdb.timeout", "15s")
	v.SetDefault("imdb.max_retries", 3)

	v.SetDefault("schedule.interval_days", 7)

	// Request defaults
	v.SetDefault("request.is_4k", true)
	v.SetDefault("request.auto_approve", false)

	v.SetDefault("filter.expression", "")

	// Safety defaults
	v.SetDefault("safety.dry_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.verbosity", logger.VerbosityMinimal)
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", logger.ColorAuto)
	v.SetDefault("logging.file", "")

	v.SetDefault("metrics.listen_addr", "")
}

var validate = newValidator()

func newValidator() func(*Config) error {
	vd := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their config key
	vd.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = vd.RegisterValidation("verbosity", func(fl validator.FieldLevel) bool {
		return logger.ValidVerbosity(fl.Field().String())
	})

	return func(cfg *Config) error {
		cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
		cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
		cfg.Logging.Color = strings.ToLower(cfg.Logging.Color)
		cfg.Jellyseerr.URL = strings.TrimRight(strings.TrimSpace(cfg.Jellyseerr.URL), "/")
		cfg.Jellyseerr.APIKey = strings.TrimSpace(cfg.Jellyseerr.APIKey)

		if err := vd.Struct(cfg); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return err
			}
			messages := make([]string, len(fieldErrs))
			for i, fe := range fieldErrs {
				messages[i] = translateError(fe)
			}
			return errors.New(strings.Join(messages, "; "))
		}

		cfg.Logging.Verbosity = logger.NormalizeVerbosity(cfg.Logging.Verbosity)

		if cfg.Jellyseerr.APIKey == "your-api-key-here" {
			return fmt.Errorf("jellyseerr.api_key must be set to a valid API key")
		}

		if _, err := filter.Compile(cfg.Filter.Expression); err != nil {
			return fmt.Errorf("filter.expression: %w", err)
		}

		return nil
	}
}

// translateError converts a validator.FieldError into a message naming the config key
func translateError(fe validator.FieldError) string {
	// Namespace is "Config.section.key"
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "http_url":
		return fmt.Sprintf("%s must be an absolute http(s) URL", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", key, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", key)
	case "verbosity":
		return fmt.Sprintf("%s must be minimal or detailed", key)
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
