package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissing reports a required setting that was left empty.
var ErrMissing = errors.New("missing required setting")

// Limit configures one upstream gate.
type Limit struct {
	MaxConcurrent  int64
	Requests       int
	Window         time.Duration
	MaxAttempts    int
	BaseDelay      time.Duration
	RequestTimeout time.Duration
}

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr   string
		APIKey string
	}
	Database struct {
		Path string
	}
	Log struct {
		Level  string
		Format string
	}
	TMDB struct {
		APIKey string
		URL    string
	}
	Jackett struct {
		APIKey     string
		URL        string
		Categories []int
		Feeds      []string
	}
	RateLimit struct {
		TMDB    Limit
		Jackett Limit
	}
	Schedule struct {
		Discovery time.Duration
		Search    time.Duration
		Feed      time.Duration
		Snapshot  time.Duration
	}
	Window struct {
		LookbackDays  int
		CandidateDays int
		MinVoteCount  int
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
// Variables in a local .env file never override the real environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("REMUX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.apikey", "")
	v.SetDefault("database.path", "data/remux.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tmdb.apikey", "")
	v.SetDefault("tmdb.url", "https://api.themoviedb.org/3")
	v.SetDefault("jackett.apikey", "")
	v.SetDefault("jackett.url", "")
	v.SetDefault("jackett.categories", []int{2000, 2045})
	v.SetDefault("jackett.feeds", []string{})

	for _, upstream := range []string{"tmdb", "jackett"} {
		prefix := "ratelimit." + upstream + "."
		v.SetDefault(prefix+"maxconcurrent", 40)
		v.SetDefault(prefix+"requests", 40)
		v.SetDefault(prefix+"window", 10*time.Second)
		v.SetDefault(prefix+"maxattempts", 3)
		v.SetDefault(prefix+"basedelay", time.Second)
		v.SetDefault(prefix+"requesttimeout", 30*time.Second)
	}

	v.SetDefault("schedule.discovery", 24*time.Hour)
	v.SetDefault("schedule.search", 6*time.Hour)
	v.SetDefault("schedule.feed", 15*time.Minute)
	v.SetDefault("schedule.snapshot", time.Hour)

	v.SetDefault("window.lookbackdays", 1)
	v.SetDefault("window.candidatedays", 10)
	v.SetDefault("window.minvotecount", 100)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "remux-tracker")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
}

// Validate checks the settings the ingestion pipeline cannot run without.
func (c Config) Validate() error {
	var errs []error
	for _, req := range []struct {
		key, value string
	}{
		{"tmdb.apikey", c.TMDB.APIKey},
		{"tmdb.url", c.TMDB.URL},
		{"jackett.apikey", c.Jackett.APIKey},
		{"jackett.url", c.Jackett.URL},
		{"database.path", c.Database.Path},
	} {
		if strings.TrimSpace(req.value) == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissing, req.key))
		}
	}

	for _, interval := range []struct {
		key   string
		value time.Duration
	}{
		{"schedule.discovery", c.Schedule.Discovery},
		{"schedule.search", c.Schedule.Search},
		{"schedule.feed", c.Schedule.Feed},
	} {
		if interval.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", interval.key))
		}
	}
	return errors.Join(errs...)
}
