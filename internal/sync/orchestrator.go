// Package sync runs a full refresh of one podcast's catalog from its feed.
package sync

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"pod-tracker/internal/catalog"
	"pod-tracker/internal/models"
)

const (
	otelScope        = "pod-tracker/sync"
	spanSync         = "sync.podcast"
	metricNew        = "podtracker.sync.episodes.new"
	metricUpdated    = "podtracker.sync.episodes.updated"
	metricDuplicates = "podtracker.sync.episodes.duplicates"
	metricFailures   = "podtracker.sync.failures"

	// countLimit is the page size used to approximate a catalog's size.
	countLimit = catalog.MaxPageLimit
	// PreviewSize caps the episodes echoed back in a SyncReport.
	PreviewSize = 10
)

// Orchestrator syncs a podcast's feed into its catalog and reports what changed.
type Orchestrator struct {
	owners  PodcastOwners
	parser  FeedParser
	reader  *catalog.Reader
	batcher *catalog.Batcher
	log     *log.Logger

	tracer        trace.Tracer
	cntNew        metric.Int64Counter
	cntUpdated    metric.Int64Counter
	cntDuplicates metric.Int64Counter
	cntFailures   metric.Int64Counter
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(owners PodcastOwners, parser FeedParser, reader *catalog.Reader, batcher *catalog.Batcher, logger *log.Logger) *Orchestrator {
	meter := otel.Meter(otelScope)
	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("creating OTel counter", "name", name, "err", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Orchestrator{
		owners:  owners,
		parser:  parser,
		reader:  reader,
		batcher: batcher,
		log:     logger,

		tracer:        otel.Tracer(otelScope),
		cntNew:        mustCounter(metricNew, "Episodes added to catalogs"),
		cntUpdated:    mustCounter(metricUpdated, "Existing episodes refreshed from feeds"),
		cntDuplicates: mustCounter(metricDuplicates, "Feed entries not persisted as distinct episodes"),
		cntFailures:   mustCounter(metricFailures, "Syncs that ended in an error"),
	}
}

// Sync refreshes podcastID from its feed on behalf of userID.
//
// A podcast the user does not own is reported as not found. A feed that
// cannot be fetched or parsed is a FeedParse error. Individual episodes that
// fail to persist do not fail the sync.
func (o *Orchestrator) Sync(ctx context.Context, podcastID string, userID int64) (models.SyncReport, error) {
	ctx, span := o.tracer.Start(ctx, spanSync, trace.WithAttributes(
		attribute.String("podcast.id", podcastID),
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	report, err := o.sync(ctx, podcastID, userID)
	if err != nil {
		o.cntFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", catalog.KindOf(err).String())))
		span.RecordError(err)
		span.SetStatus(codes.Error, catalog.KindOf(err).String())
		return models.SyncReport{}, err
	}

	if report.NewEpisodes > 0 {
		o.cntNew.Add(ctx, int64(report.NewEpisodes))
	}
	if report.UpdatedEpisodes > 0 {
		o.cntUpdated.Add(ctx, int64(report.UpdatedEpisodes))
	}
	if report.DuplicatesFound > 0 {
		o.cntDuplicates.Add(ctx, int64(report.DuplicatesFound))
	}
	span.SetAttributes(
		attribute.Int("sync.total", report.TotalEpisodes),
		attribute.Int("sync.new", report.NewEpisodes),
		attribute.Int("sync.updated", report.UpdatedEpisodes),
		attribute.Int("sync.duplicates", report.DuplicatesFound),
		attribute.Int("sync.processed", report.TotalProcessed),
	)
	return report, nil
}

func (o *Orchestrator) sync(ctx context.Context, podcastID string, userID int64) (models.SyncReport, error) {
	const op = "sync podcast"

	podcast, err := o.ownedPodcast(ctx, podcastID, userID)
	if err != nil {
		return models.SyncReport{}, err
	}

	before, err := o.count(ctx, podcastID)
	if err != nil {
		return models.SyncReport{}, err
	}

	drafts, err := o.parser.ParseDrafts(ctx, podcast.FeedURL)
	if err != nil {
		return models.SyncReport{}, catalog.FeedParse(op, err)
	}
	if len(drafts) == 0 {
		o.log.Info("feed has no episodes", "podcast", podcastID, "feed", podcast.FeedURL)
		return models.SyncReport{
			Message:       "No episodes found in feed",
			TotalEpisodes: before,
			Episodes:      []models.Episode{},
		}, nil
	}

	saved := o.batcher.SyncDrafts(ctx, podcastID, drafts)

	after, err := o.count(ctx, podcastID)
	if err != nil {
		return models.SyncReport{}, err
	}

	newEpisodes := max(0, after-before)
	report := models.SyncReport{
		Message:         fmt.Sprintf("Synced %d episodes", len(saved)),
		TotalEpisodes:   after,
		NewEpisodes:     newEpisodes,
		UpdatedEpisodes: max(0, len(saved)-newEpisodes),
		DuplicatesFound: max(0, len(drafts)-len(saved)),
		TotalProcessed:  len(drafts),
		Episodes:        preview(saved),
	}
	o.log.Info("podcast synced",
		"podcast", podcastID,
		"drafts", len(drafts),
		"saved", len(saved),
		"new", report.NewEpisodes,
		"updated", report.UpdatedEpisodes,
		"duplicates", report.DuplicatesFound,
	)
	return report, nil
}

func (o *Orchestrator) ownedPodcast(ctx context.Context, podcastID string, userID int64) (*models.Podcast, error) {
	const op = "sync podcast"
	if podcastID == "" {
		return nil, catalog.Validation(op, "podcast id is required")
	}
	podcasts, err := o.owners.GetPodcastsOwnedBy(ctx, userID)
	if err != nil {
		return nil, catalog.Internal(op, fmt.Errorf("failed to list podcasts for user %d: %w", userID, err))
	}
	for i := range podcasts {
		if podcasts[i].ID == podcastID {
			return &podcasts[i], nil
		}
	}
	return nil, catalog.NotFound(op, "podcast not found")
}

// count approximates the catalog size with one large page.
func (o *Orchestrator) count(ctx context.Context, podcastID string) (int, error) {
	page, err := o.reader.ListEpisodes(ctx, podcastID, countLimit, "")
	if err != nil {
		return 0, err
	}
	return len(page.Episodes), nil
}

func preview(saved []models.Episode) []models.Episode {
	n := min(len(saved), PreviewSize)
	out := make([]models.Episode, n)
	copy(out, saved[:n])
	return out
}
