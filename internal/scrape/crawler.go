package scrape

import (
	"context"
	"errors"
	"log/slog"

	"github.com/digivice-labs/digigraph/internal/config"
	"github.com/digivice-labs/digigraph/internal/model"
)

// CrawlStore is the persistence the traversal needs: entity records,
// their evolution links, and the visitation ledger. The database
// package's Store implements it.
type CrawlStore interface {
	// RegisterEntity inserts an entity or returns the existing record
	// with the same name.
	RegisterEntity(ctx context.Context, e *model.Entity) (*model.Entity, error)

	// EntityBySite returns the entity for a site identifier, or nil
	// when none exists.
	EntityBySite(ctx context.Context, site string) (*model.Entity, error)

	// SetEvolutionLinks stores the extracted links and marks the
	// entity scraped.
	SetEvolutionLinks(ctx context.Context, id int64, prev, next []string) error

	// MarkVisited records a site in the visitation ledger.
	MarkVisited(ctx context.Context, site string) error

	// Visited reports whether a site has already been processed.
	Visited(ctx context.Context, site string) (bool, error)

	// UnvisitedLinkTargets returns every stored link target not yet
	// visited, the seed set for resumed crawls.
	UnvisitedLinkTargets(ctx context.Context) ([]string, error)

	// SitesWithoutLinks returns entities whose links were never
	// extracted, the seed set for refill crawls.
	SitesWithoutLinks(ctx context.Context) ([]string, error)
}

// Crawler drives the graph traversal: it pops sites off a stack,
// processes each into an entity with evolution links, and pushes the
// newly discovered links back on. Per-site fetch and parse failures are
// logged and skipped so the affected site stays eligible for a later
// run; persistence failures abort the crawl.
type Crawler struct {
	// store is the entity and ledger persistence.
	store CrawlStore

	// fetcher retrieves page content, cache first.
	fetcher Fetcher

	// extractor pulls evolution links out of fetched pages.
	extractor *Extractor

	// logger receives traversal progress.
	logger *slog.Logger
}

// NewCrawler creates a Crawler over the given collaborators.
func NewCrawler(store CrawlStore, fetcher Fetcher, extractor *Extractor, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		store:     store,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logger,
	}
}

// Run executes a crawl in the given mode. Fresh mode traverses from the
// start site; resume seeds from every stored-but-unvisited link target;
// refill seeds from entities whose links were never extracted. All
// modes share the same traversal, so a crawl interrupted at any point
// picks up where it left off.
func (c *Crawler) Run(ctx context.Context, mode config.Mode, start string) error {
	seeds, err := c.seedSites(ctx, mode, start)
	if err != nil {
		return err
	}

	c.logger.Info("starting crawl", "mode", mode.String(), "seeds", len(seeds))

	for _, seed := range seeds {
		if err := c.traverse(ctx, seed); err != nil {
			return err
		}
	}
	return nil
}

// seedSites resolves the initial traversal stack for a mode.
func (c *Crawler) seedSites(ctx context.Context, mode config.Mode, start string) ([]string, error) {
	switch mode {
	case config.ModeResume:
		return c.store.UnvisitedLinkTargets(ctx)
	case config.ModeRefill:
		return c.store.SitesWithoutLinks(ctx)
	default:
		return []string{start}, nil
	}
}

// traverse runs a depth-first walk from a single seed. Already-visited
// sites contribute their stored links to the stack instead of being
// reprocessed, which is what lets an interrupted crawl resume without
// refetching anything.
func (c *Crawler) traverse(ctx context.Context, seed string) error {
	stack := []string{seed}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		site := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !isSiteLocal(site) {
			continue
		}

		visited, err := c.store.Visited(ctx, site)
		if err != nil {
			return err
		}

		var links []string
		if visited {
			entity, err := c.store.EntityBySite(ctx, site)
			if err != nil {
				return err
			}
			if entity == nil {
				// Visited but never became an entity: a non-creature
				// page. Nothing to follow.
				continue
			}
			links = entity.AllLinks()
		} else {
			entity, err := c.visit(ctx, site)
			if err != nil {
				if isSiteFailure(err) {
					// The site stays unvisited so a later run can
					// retry it.
					c.logger.Warn("site skipped", "site", site, "err", err)
					continue
				}
				return err
			}

			if err := c.store.MarkVisited(ctx, site); err != nil {
				return err
			}

			if entity == nil {
				continue
			}
			links = entity.AllLinks()
		}

		for _, link := range links {
			linkVisited, err := c.store.Visited(ctx, link)
			if err != nil {
				return err
			}
			if !linkVisited {
				stack = append(stack, link)
			}
		}
	}
	return nil
}

// visit fetches and processes one site. Non-creature pages return a nil
// entity; creature pages are registered and their evolution links
// extracted and stored.
func (c *Crawler) visit(ctx context.Context, site string) (*model.Entity, error) {
	c.logger.Info("visiting", "site", site)

	html, err := c.fetcher.Fetch(ctx, site)
	if err != nil {
		return nil, err
	}

	doc, err := parseDocument(site, html)
	if err != nil {
		return nil, err
	}

	if !isCreaturePage(doc) {
		c.logger.Debug("not a creature page", "site", site)
		return nil, nil
	}

	entity, err := c.store.RegisterEntity(ctx, &model.Entity{
		Name:       pageTitle(doc),
		SiteID:     site,
		CachedHTML: html,
	})
	if err != nil {
		return nil, err
	}

	prev, next, err := c.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := c.store.SetEvolutionLinks(ctx, entity.ID, prev, next); err != nil {
		return nil, err
	}

	entity.PrevLinks = prev
	entity.NextLinks = next

	if len(prev) == 0 && len(next) == 0 {
		c.logger.Warn("no evolution links", "site", site, "name", entity.Name)
	} else {
		c.logger.Info("links stored", "site", site, "name", entity.Name,
			"prev", len(prev), "next", len(next))
	}

	return entity, nil
}

// isSiteFailure reports whether an error should skip the current site
// rather than abort the crawl. Fetch and parse failures qualify;
// anything else (storage, cancellation) is fatal.
func isSiteFailure(err error) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return true
	}
	return isFetchFailure(err)
}
