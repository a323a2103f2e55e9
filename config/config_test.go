package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/jellyrequest/imdb"
)

// isolate runs the test in an empty directory with none of the known variables set
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	for key, legacy := range envBindings {
		names := append([]string{envName(key)}, legacy...)
		for _, name := range names {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return dir
}

func envName(key string) string {
	out := []byte(EnvPrefix + "_")
	for _, c := range []byte(key) {
		switch {
		case c == '.':
			out = append(out, '_')
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("JELLYSEERR_URL", "http://jellyseerr:5055/")
	t.Setenv("API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://jellyseerr:5055", cfg.Jellyseerr.URL)
	assert.Equal(t, "secret", cfg.Jellyseerr.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Jellyseerr.Timeout)
	assert.Equal(t, 3, cfg.Jellyseerr.MaxRetries)
	assert.Equal(t, 5.0, cfg.Jellyseerr.RateLimit)

	assert.Equal(t, imdb.DefaultChartURL, cfg.IMDb.URL)
	assert.Equal(t, 50, cfg.IMDb.Limit)
	assert.Equal(t, imdb.DefaultUserAgent, cfg.IMDb.UserAgent)

	assert.Equal(t, 7, cfg.Schedule.IntervalDays)
	assert.Equal(t, 7*24*time.Hour, cfg.Schedule.Interval())

	assert.True(t, cfg.Request.Is4K)
	assert.False(t, cfg.Request.AutoApprove)
	assert.Nil(t, cfg.Request.ServerID)
	assert.False(t, cfg.Safety.DryRun)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "minimal", cfg.Logging.Verbosity)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "auto", cfg.Logging.Color)
	assert.Empty(t, cfg.Metrics.ListenAddr)
}

func TestLoadLegacyEnv(t *testing.T) {
	isolate(t)
	t.Setenv("JELLYSEERR_URL", "http://jellyseerr:5055")
	t.Setenv("API_KEY", "legacy")
	t.Setenv("IMDB_URL", "https://example.com/chart")
	t.Setenv("MOVIE_LIMIT", "25")
	t.Setenv("RUN_INTERVAL_DAYS", "1")
	t.Setenv("DEBUG_MODE", "VERBOSE")
	t.Setenv("IS_4K_REQUEST", "false")
	t.Setenv("LOG_FILE", "/tmp/jellyrequest.log")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/chart", cfg.IMDb.URL)
	assert.Equal(t, 25, cfg.IMDb.Limit)
	assert.Equal(t, 1, cfg.Schedule.IntervalDays)
	assert.Equal(t, "detailed", cfg.Logging.Verbosity)
	assert.False(t, cfg.Request.Is4K)
	assert.Equal(t, "/tmp/jellyrequest.log", cfg.Logging.File)
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	isolate(t)
	t.Setenv("JELLYSEERR_URL", "http://legacy:5055")
	t.Setenv("JELLYREQUEST_JELLYSEERR_URL", "http://prefixed:5055")
	t.Setenv("API_KEY", "legacy")
	t.Setenv("JELLYSEERR_API_KEY", "newer")
	t.Setenv("JELLYREQUEST_REQUEST_SERVER_ID", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed:5055", cfg.Jellyseerr.URL)
	assert.Equal(t, "newer", cfg.Jellyseerr.APIKey)
	require.NotNil(t, cfg.Request.ServerID)
	assert.Equal(t, 2, *cfg.Request.ServerID)
	assert.Equal(t, 2, *cfg.Request.Options().ServerID)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
jellyseerr:
  url: http://file:5055
  api_key: from-file
  timeout: 30s
imdb:
  limit: 10
request:
  is_4k: false
  auto_approve: true
  profile_id: 4
  root_folder: /movies
filter:
  expression: Rank <= 5
metrics:
  listen_addr: ":9090"
`)

	t.Run("file values", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "http://file:5055", cfg.Jellyseerr.URL)
		assert.Equal(t, 30*time.Second, cfg.Jellyseerr.Timeout)
		assert.Equal(t, 10, cfg.IMDb.Limit)
		assert.True(t, cfg.Request.AutoApprove)
		require.NotNil(t, cfg.Request.ProfileID)
		assert.Equal(t, 4, *cfg.Request.ProfileID)
		assert.Equal(t, "/movies", cfg.Request.RootFolder)
		assert.Equal(t, "Rank <= 5", cfg.Filter.Expression)
		assert.Equal(t, ":9090", cfg.Metrics.ListenAddr)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("MOVIE_LIMIT", "40")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 40, cfg.IMDb.Limit)
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config")
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "JELLYSEERR_URL=http://dotenv:5055\nAPI_KEY=dotenv\nMOVIE_LIMIT=12\n")
	t.Setenv("MOVIE_LIMIT", "30")
	t.Cleanup(func() {
		os.Unsetenv("JELLYSEERR_URL")
		os.Unsetenv("API_KEY")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:5055", cfg.Jellyseerr.URL)
	assert.Equal(t, "dotenv", cfg.Jellyseerr.APIKey)
	// existing variables are not overridden
	assert.Equal(t, 30, cfg.IMDb.Limit)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing url",
			env:     map[string]string{"API_KEY": "k"},
			wantErr: "jellyseerr.url is required",
		},
		{
			name:    "missing api key",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055"},
			wantErr: "jellyseerr.api_key is required",
		},
		{
			name:    "placeholder api key",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055", "API_KEY": "your-api-key-here"},
			wantErr: "must be set to a valid API key",
		},
		{
			name:    "relative url",
			env:     map[string]string{"JELLYSEERR_URL": "jellyseerr:5055", "API_KEY": "k"},
			wantErr: "jellyseerr.url must be an absolute http(s) URL",
		},
		{
			name:    "zero interval",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055", "API_KEY": "k", "RUN_INTERVAL_DAYS": "0"},
			wantErr: "schedule.interval_days must be greater than or equal to 1",
		},
		{
			name:    "zero limit",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055", "API_KEY": "k", "MOVIE_LIMIT": "0"},
			wantErr: "imdb.limit must be greater than or equal to 1",
		},
		{
			name:    "bad verbosity",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055", "API_KEY": "k", "DEBUG_MODE": "chatty"},
			wantErr: "logging.verbosity must be minimal or detailed",
		},
		{
			name:    "bad level",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055", "API_KEY": "k", "JELLYREQUEST_LOGGING_LEVEL": "loud"},
			wantErr: "logging.level must be one of: trace, debug, info, warn, error",
		},
		{
			name:    "bad metrics address",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055", "API_KEY": "k", "METRICS_ADDR": "nope"},
			wantErr: "metrics.listen_addr must be host:port",
		},
		{
			name:    "bad filter",
			env:     map[string]string{"JELLYSEERR_URL": "http://j:5055", "API_KEY": "k", "FILTER_EXPRESSION": "Rank <"},
			wantErr: "filter.expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
