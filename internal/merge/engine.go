package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"remux-tracker/internal/domain"
	"remux-tracker/internal/repository"
)

// Summary counts the outcome of one MergeBatch call.
type Summary struct {
	Inserted  int
	Updated   int
	Unchanged int
	Failed    int
}

// Engine is the only writer of torrent records.
type Engine struct {
	torrents repository.TorrentRepository
	logger   *logrus.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for first-seen timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(torrents repository.TorrentRepository, logger *logrus.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	e := &Engine{
		torrents: torrents,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MergeBatch reconciles candidates with the store one at a time, in the given
// order. Callers pass candidates ranked descending so that, when two share a
// dedup key, the better-ranked sighting supplies the magnet link. A failure on
// one candidate is logged and does not stop the batch.
func (e *Engine) MergeBatch(ctx context.Context, candidates []domain.Candidate) Summary {
	var summary Summary
	for _, c := range candidates {
		outcome, err := e.mergeOne(ctx, c)
		if err != nil {
			summary.Failed++
			e.logger.WithFields(logrus.Fields{
				"movie_id":  c.MovieID,
				"file_name": c.FileName,
			}).Errorf("merge torrent: %v", err)
			continue
		}
		switch outcome {
		case outcomeInserted:
			summary.Inserted++
		case outcomeUpdated:
			summary.Updated++
		default:
			summary.Unchanged++
		}
	}
	return summary
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeInserted
	outcomeUpdated
)

func (e *Engine) mergeOne(ctx context.Context, c domain.Candidate) (outcome, error) {
	existing, err := e.torrents.FindByKey(ctx, c.Key())
	if errors.Is(err, repository.ErrNotFound) {
		torrent := NewTorrent(c, e.now().UTC())
		if _, err := e.torrents.Create(ctx, &torrent); err != nil {
			return outcomeUnchanged, fmt.Errorf("create: %w", err)
		}
		e.logger.WithFields(logrus.Fields{
			"movie_id": c.MovieID,
			"group":    torrent.ReleaseGroup,
			"rank":     torrent.Rank,
		}).Infof("new torrent %s", c.FileName)
		return outcomeInserted, nil
	}
	if err != nil {
		return outcomeUnchanged, fmt.Errorf("lookup: %w", err)
	}

	updated, changed := Merge(*existing, c)
	if !changed {
		return outcomeUnchanged, nil
	}
	if err := e.torrents.Update(ctx, &updated); err != nil {
		return outcomeUnchanged, fmt.Errorf("update: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"movie_id": c.MovieID,
		"indexers": updated.Indexers,
		"rank":     updated.Rank,
	}).Debugf("updated torrent %d", updated.ID)
	return outcomeUpdated, nil
}
