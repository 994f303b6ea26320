package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"remux-tracker/internal/config"
	apphttp "remux-tracker/internal/http"
	"remux-tracker/internal/ingest"
	"remux-tracker/internal/jackett"
	"remux-tracker/internal/merge"
	"remux-tracker/internal/ratelimit"
	"remux-tracker/internal/repository/sqlite"
	"remux-tracker/internal/scheduler"
	"remux-tracker/internal/service"
	"remux-tracker/internal/storage"
	"remux-tracker/internal/tmdb"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	movieRepo := sqlite.NewMovieRepository(db)
	torrentRepo := sqlite.NewTorrentRepository(db)
	if err := sqlite.Migrate(ctx, movieRepo, torrentRepo); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	tmdbGate := ratelimit.New("tmdb", limitConfig(cfg.RateLimit.TMDB), logger)
	jackettGate := ratelimit.New("jackett", limitConfig(cfg.RateLimit.Jackett), logger)

	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.URL, tmdb.WithLimiter(tmdbGate))
	if err != nil {
		logger.Fatalf("setup tmdb: %v", err)
	}
	jackettClient, err := jackett.New(cfg.Jackett.APIKey, cfg.Jackett.URL, jackett.WithLimiter(jackettGate))
	if err != nil {
		logger.Fatalf("setup jackett: %v", err)
	}

	engine := merge.NewEngine(torrentRepo, logger)
	ingestOpts := []ingest.Option{
		ingest.WithConfig(ingest.Config{
			MinVoteCount:        cfg.Window.MinVoteCount,
			LookbackDays:        cfg.Window.LookbackDays,
			CandidateWindowDays: cfg.Window.CandidateDays,
			Categories:          cfg.Jackett.Categories,
		}),
	}
	if feeds := buildFeeds(cfg.Jackett.Feeds, logger); len(feeds) > 0 {
		source := jackett.NewFeedSource(feeds, jackett.WithFeedLimiter(jackettGate))
		ingestOpts = append(ingestOpts, ingest.WithFeeds(source))
		logger.Infof("polling %d torznab feeds", source.Len())
	}
	ingestSvc := ingest.NewService(movieRepo, torrentRepo, tmdbClient, jackettClient, engine, logger, ingestOpts...)

	catalog := service.NewCatalogService(movieRepo, torrentRepo)

	jobs := []scheduler.Job{
		{
			Name:       "discovery",
			Interval:   cfg.Schedule.Discovery,
			RunOnStart: true,
			Run: func(ctx context.Context) error {
				_, err := ingestSvc.CheckNewReleases(ctx)
				return err
			},
		},
		{
			Name:     "torrent-search",
			Interval: cfg.Schedule.Search,
			Run: func(ctx context.Context) error {
				_, err := ingestSvc.CheckNewTorrents(ctx)
				return err
			},
		},
		{
			Name:     "feed-poll",
			Interval: cfg.Schedule.Feed,
			Run: func(ctx context.Context) error {
				_, err := ingestSvc.PollFeed(ctx)
				return err
			},
		},
	}

	publisher, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	if publisher != nil && cfg.Schedule.Snapshot > 0 {
		exporter := service.NewSnapshotExporter(catalog, publisher, "", logger)
		jobs = append(jobs, scheduler.Job{
			Name:     "snapshot",
			Interval: cfg.Schedule.Snapshot,
			Run:      exporter.Export,
		})
	}

	runner := scheduler.New(logger, jobs...)
	if err := runner.Start(ctx); err != nil {
		logger.Fatalf("start scheduler: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(catalog, ingestSvc, runner, cfg.Server.APIKey, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	runner.Shutdown()

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if strings.EqualFold(cfg.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

func limitConfig(l config.Limit) ratelimit.Config {
	return ratelimit.Config{
		MaxConcurrent:  l.MaxConcurrent,
		Requests:       l.Requests,
		Window:         l.Window,
		MaxAttempts:    l.MaxAttempts,
		BaseDelay:      l.BaseDelay,
		RequestTimeout: l.RequestTimeout,
	}
}

// buildFeeds names each feed after its host, which becomes the indexer label.
func buildFeeds(urls []string, logger *logrus.Logger) []jackett.Feed {
	var feeds []jackett.Feed
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			logger.Warnf("skipping feed %q: not a valid url", raw)
			continue
		}
		feeds = append(feeds, jackett.Feed{Name: u.Hostname(), URL: raw})
	}
	return feeds
}

// buildStorage returns nil when no bucket is configured; the snapshot job is
// then left out.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Publisher, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, snapshot export disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	publisher, err := storage.NewS3Publisher(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
