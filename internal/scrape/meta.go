package scrape

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/digivice-labs/digigraph/internal/model"
)

// Infobox selectors for metadata extraction. Each labels a table cell
// whose next sibling cell holds the value.
const (
	stageLabelSelector     = "a[title='Evolution Stage']"
	typeLabelSelector      = "a[title='Type']"
	attributeLabelSelector = "a[title='Attribute']"
)

// MetadataStore is the persistence the refiller needs. The database
// package's Store implements it.
type MetadataStore interface {
	// EntitiesWithPendingMetadata returns entities with cached content
	// whose metadata was never extracted.
	EntitiesWithPendingMetadata(ctx context.Context) ([]*model.Entity, error)

	// SetMetadata stores the infobox metadata for an entity.
	SetMetadata(ctx context.Context, id int64, stage model.Stage, typ, attribute string) error
}

// MetadataRefiller extracts infobox metadata (stage, type, attribute)
// from already-cached page content. It never touches the network, so
// parsing fans out across workers; only the database writes serialize.
type MetadataRefiller struct {
	store   MetadataStore
	workers int
	logger  *slog.Logger
}

// NewMetadataRefiller creates a MetadataRefiller with the given
// parse-worker count.
func NewMetadataRefiller(store MetadataStore, workers int, logger *slog.Logger) *MetadataRefiller {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataRefiller{
		store:   store,
		workers: workers,
		logger:  logger,
	}
}

// Run extracts and stores metadata for every pending entity. It returns
// the number of entities updated.
func (r *MetadataRefiller) Run(ctx context.Context) (int, error) {
	entities, err := r.store.EntitiesWithPendingMetadata(ctx)
	if err != nil {
		return 0, err
	}

	r.logger.Info("refilling metadata", "pending", len(entities))

	var (
		mu      sync.Mutex
		updated int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, entity := range entities {
		entity := entity
		g.Go(func() error {
			stage, typ, attribute, err := extractMetadata(entity.SiteID, entity.CachedHTML)
			if err != nil {
				// Unparseable cached content is logged and left
				// pending; the crawl that refreshes it will clear it.
				r.logger.Warn("metadata extraction failed", "site", entity.SiteID, "err", err)
				return nil
			}

			if err := r.store.SetMetadata(ctx, entity.ID, stage, typ, attribute); err != nil {
				return err
			}

			mu.Lock()
			updated++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return updated, err
	}

	r.logger.Info("metadata refill complete", "updated", updated)
	return updated, nil
}

// extractMetadata pulls the stage, type and attribute out of a cached
// page's infobox.
func extractMetadata(site, html string) (model.Stage, string, string, error) {
	doc, err := parseDocument(site, html)
	if err != nil {
		return model.StageUnknown, "", "", err
	}

	stage := model.ParseStage(infoboxValue(doc, stageLabelSelector))
	typ := infoboxValue(doc, typeLabelSelector)
	attribute := infoboxValue(doc, attributeLabelSelector)

	return stage, typ, attribute, nil
}

// infoboxValue finds a labeled infobox cell and returns the text of the
// sibling cell holding its value, or empty when the label is absent.
func infoboxValue(doc *goquery.Document, labelSelector string) string {
	label := doc.Find(labelSelector).First()
	if label.Length() == 0 {
		return ""
	}

	value := label.Closest("td").NextAllFiltered("td").First()
	return strings.TrimSpace(value.Text())
}
