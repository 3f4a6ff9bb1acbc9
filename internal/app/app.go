// Package app assembles the catalog and sync components on top of the
// Postgres store. The binaries share it so they run identical sync logic.
package app

import (
	"context"

	"github.com/charmbracelet/log"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/config"
	"pod-tracker/internal/db"
	"pod-tracker/internal/feed"
	podsync "pod-tracker/internal/sync"
)

type Catalog struct {
	Store        *db.Store
	Reader       *catalog.Reader
	Orchestrator *podsync.Orchestrator
}

// NewCatalog wires a Catalog over store. parser may be nil to use the
// default HTTP feed parser.
func NewCatalog(store *db.Store, parser podsync.FeedParser, batchSize int, logger *log.Logger) *Catalog {
	if parser == nil {
		parser = feed.NewParser(nil)
	}
	reader := catalog.NewReader(store, logger.WithPrefix("reader"))
	resolver := catalog.NewResolver(store, logger.WithPrefix("resolver"))
	batcher := catalog.NewBatcher(store, resolver, catalog.NewUpserter(store), batchSize, logger.WithPrefix("batch"))
	return &Catalog{
		Store:        store,
		Reader:       reader,
		Orchestrator: podsync.NewOrchestrator(store, parser, reader, batcher, logger.WithPrefix("sync")),
	}
}

// OpenStore connects to Postgres and, when migrate is set, applies pending
// migrations.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool) (*db.Store, error) {
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	store := db.New(conn)
	if migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}
