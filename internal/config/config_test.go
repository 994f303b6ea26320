package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp keeps config files and .env in the working directory out of the test.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.URL)
	assert.Equal(t, []int{2000, 2045}, cfg.Jackett.Categories)
	assert.Equal(t, int64(40), cfg.RateLimit.TMDB.MaxConcurrent)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Jackett.Window)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.Feed)
	assert.Equal(t, 10, cfg.Window.CandidateDays)
	assert.Empty(t, cfg.Storage.Bucket)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("REMUX_TMDB_APIKEY", "tmdb-key")
	t.Setenv("REMUX_JACKETT_URL", "http://jackett:9117")
	t.Setenv("REMUX_SCHEDULE_SEARCH", "2h")
	t.Setenv("REMUX_RATELIMIT_TMDB_MAXATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tmdb-key", cfg.TMDB.APIKey)
	assert.Equal(t, "http://jackett:9117", cfg.Jackett.URL)
	assert.Equal(t, 2*time.Hour, cfg.Schedule.Search)
	assert.Equal(t, 5, cfg.RateLimit.TMDB.MaxAttempts)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile(".env", []byte("REMUX_JACKETT_APIKEY=from-file\nREMUX_SERVER_APIKEY=file-key\n"), 0o600))
	t.Setenv("REMUX_SERVER_APIKEY", "env-key")
	t.Cleanup(func() { _ = os.Unsetenv("REMUX_JACKETT_APIKEY") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Jackett.APIKey)
	assert.Equal(t, "env-key", cfg.Server.APIKey)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "tmdb.apikey")
	assert.Contains(t, err.Error(), "jackett.url")
	assert.NotContains(t, err.Error(), "tmdb.url")

	cfg.TMDB.APIKey = "k"
	cfg.Jackett.APIKey = "k"
	cfg.Jackett.URL = "http://jackett"
	assert.NoError(t, cfg.Validate())

	cfg.Schedule.Feed = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateReportsInFixedOrder(t *testing.T) {
	var cfg Config
	cfg.Database.Path = "remux.db"

	want := "missing required setting: tmdb.apikey\n" +
		"missing required setting: tmdb.url\n" +
		"missing required setting: jackett.apikey\n" +
		"missing required setting: jackett.url\n" +
		"schedule.discovery must be positive\n" +
		"schedule.search must be positive\n" +
		"schedule.feed must be positive"
	for range 10 {
		assert.EqualError(t, cfg.Validate(), want)
	}
}
