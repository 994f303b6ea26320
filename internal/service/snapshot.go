package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"remux-tracker/internal/storage"
)

// SnapshotExporter publishes the catalog as a single JSON document.
type SnapshotExporter struct {
	catalog   CatalogService
	publisher storage.Publisher
	key       string
	logger    *logrus.Logger
}

func NewSnapshotExporter(catalog CatalogService, publisher storage.Publisher, key string, logger *logrus.Logger) *SnapshotExporter {
	if key == "" {
		key = "catalog.json"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &SnapshotExporter{
		catalog:   catalog,
		publisher: publisher,
		key:       key,
		logger:    logger,
	}
}

func (e *SnapshotExporter) Export(ctx context.Context) error {
	snapshot, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}
	location, err := e.publisher.PublishJSON(ctx, e.key, snapshot)
	if err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"movies":   len(snapshot.Movies),
		"upcoming": len(snapshot.Upcoming),
	}).Infof("catalog snapshot published to %s", location)
	return nil
}
