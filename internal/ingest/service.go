// Package ingest drives discovery of physical release dates and the torrent
// searches that feed the merge engine.
package ingest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/jackett"
	"remux-tracker/internal/merge"
	"remux-tracker/internal/repository"
	"remux-tracker/internal/tmdb"
)

// Merger reconciles ranked candidates with the torrent store.
type Merger interface {
	MergeBatch(ctx context.Context, candidates []domain.Candidate) merge.Summary
}

// FeedFetcher supplies extra recent results for the feed poll.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]jackett.Result, error)
}

type Config struct {
	// MinVoteCount filters obscure titles out of discovery.
	MinVoteCount int
	// LookbackDays is the discovery window used by CheckNewReleases.
	LookbackDays int
	// CandidateWindowDays selects recently released movies for searching.
	CandidateWindowDays int
	Categories          []int
	// PhysicalNote must appear, case-insensitively, in a physical release's note.
	PhysicalNote string
}

func DefaultConfig() Config {
	return Config{
		MinVoteCount:        100,
		LookbackDays:        1,
		CandidateWindowDays: 10,
		Categories:          jackett.DefaultCategories,
		PhysicalNote:        "blu-ray",
	}
}

type Service struct {
	movies   repository.MovieRepository
	torrents repository.TorrentRepository
	tmdb     tmdb.Source
	search   jackett.Searcher
	feeds    FeedFetcher
	merger   Merger
	cfg      Config
	logger   *logrus.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFeeds adds Torznab feeds to the feed poll.
func WithFeeds(feeds FeedFetcher) Option {
	return func(s *Service) { s.feeds = feeds }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		def := DefaultConfig()
		if cfg.MinVoteCount < 0 {
			cfg.MinVoteCount = def.MinVoteCount
		}
		if cfg.LookbackDays <= 0 {
			cfg.LookbackDays = def.LookbackDays
		}
		if cfg.CandidateWindowDays <= 0 {
			cfg.CandidateWindowDays = def.CandidateWindowDays
		}
		if len(cfg.Categories) == 0 {
			cfg.Categories = def.Categories
		}
		if cfg.PhysicalNote == "" {
			cfg.PhysicalNote = def.PhysicalNote
		}
		s.cfg = cfg
	}
}

func NewService(
	movies repository.MovieRepository,
	torrents repository.TorrentRepository,
	source tmdb.Source,
	search jackett.Searcher,
	merger Merger,
	logger *logrus.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Service{
		movies:   movies,
		torrents: torrents,
		tmdb:     source,
		search:   search,
		merger:   merger,
		cfg:      DefaultConfig(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats counts the work done by one search or feed run.
type Stats struct {
	Movies     int `json:"movies"`
	Results    int `json:"results"`
	Candidates int `json:"candidates"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	Failed     int `json:"failed"`
}

func (s *Stats) addMerge(summary merge.Summary) {
	s.Inserted += summary.Inserted
	s.Updated += summary.Updated
	s.Unchanged += summary.Unchanged
	s.Failed += summary.Failed
}

// today returns midnight of the current day in the clock's location.
func (s *Service) today() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
