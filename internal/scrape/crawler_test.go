package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/digivice-labs/digigraph/internal/config"
	"github.com/digivice-labs/digigraph/internal/database"
	"github.com/digivice-labs/digigraph/internal/fetch"
	"github.com/digivice-labs/digigraph/internal/model"
)

// setupCrawler wires a Crawler over a temporary store and canned pages.
func setupCrawler(t *testing.T, pages map[string]string) (*Crawler, *database.Store, *mapFetcher) {
	t.Helper()

	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := newMapFetcher(pages)
	classifier := NewClassifier(store, fetcher, WithClassifierLogger(logger))
	extractor := NewExtractor(classifier, 2, 3, WithExtractorLogger(logger))
	crawler := NewCrawler(store, fetcher, extractor, logger)

	return crawler, store, fetcher
}

// evolutionGraph is a three-creature line with a shared citation
// source.
func evolutionGraph() map[string]string {
	return map[string]string{
		"/Agumon": creaturePage("Agumon",
			[]evolutionEntry{{site: "/Koromon", citations: []string{"/Book1"}}},
			[]evolutionEntry{{site: "/Greymon", citations: []string{"/Book1"}}}),
		"/Koromon": creaturePage("Koromon",
			nil,
			[]evolutionEntry{{site: "/Agumon", citations: []string{"/Book1"}}}),
		"/Greymon": creaturePage("Greymon",
			[]evolutionEntry{{site: "/Agumon", citations: []string{"/Book1"}}},
			nil),
		"/Book1": sourcePage("Book1"),
	}
}

// TestRun_FreshCrawl tests a full traversal from a start site.
func TestRun_FreshCrawl(t *testing.T) {
	t.Parallel()

	crawler, store, fetcher := setupCrawler(t, evolutionGraph())
	ctx := context.Background()

	if err := crawler.Run(ctx, config.ModeFresh, "/Agumon"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, site := range []string{"/Agumon", "/Koromon", "/Greymon"} {
		visited, err := store.Visited(ctx, site)
		if err != nil {
			t.Fatalf("Visited(%s) error: %v", site, err)
		}
		if !visited {
			t.Errorf("Visited(%s) = false, want true", site)
		}

		entity, err := store.EntityBySite(ctx, site)
		if err != nil {
			t.Fatalf("EntityBySite(%s) error: %v", site, err)
		}
		if entity == nil {
			t.Fatalf("EntityBySite(%s) = nil, want entity", site)
		}
		if !entity.Scraped {
			t.Errorf("%s not marked scraped", site)
		}
	}

	agumon, err := store.EntityBySite(ctx, "/Agumon")
	if err != nil {
		t.Fatalf("EntityBySite() error: %v", err)
	}
	if want := []string{"/Koromon"}; !reflect.DeepEqual(agumon.PrevLinks, want) {
		t.Errorf("PrevLinks = %v, want %v", agumon.PrevLinks, want)
	}
	if want := []string{"/Greymon"}; !reflect.DeepEqual(agumon.NextLinks, want) {
		t.Errorf("NextLinks = %v, want %v", agumon.NextLinks, want)
	}

	// The shared citation source is classified once for the whole
	// crawl; the memo covers every later occurrence.
	if fetcher.calls["/Book1"] != 1 {
		t.Errorf("citation source fetched %d times, want 1", fetcher.calls["/Book1"])
	}
}

// TestRun_Idempotent tests that a second run over a settled database
// touches nothing.
func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	crawler, _, fetcher := setupCrawler(t, evolutionGraph())
	ctx := context.Background()

	if err := crawler.Run(ctx, config.ModeFresh, "/Agumon"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	before := make(map[string]int, len(fetcher.calls))
	for site, n := range fetcher.calls {
		before[site] = n
	}

	if err := crawler.Run(ctx, config.ModeFresh, "/Agumon"); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if !reflect.DeepEqual(fetcher.calls, before) {
		t.Errorf("second run fetched: %v, want unchanged %v", fetcher.calls, before)
	}
}

// TestRun_NonCreaturePage tests that non-creature pages are remembered
// but never become entities.
func TestRun_NonCreaturePage(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/Agumon": creaturePage("Agumon",
			nil,
			[]evolutionEntry{{site: "/Artbook"}}),
		"/Artbook": nonCreaturePage("Artbook"),
	}

	crawler, store, _ := setupCrawler(t, pages)
	ctx := context.Background()

	if err := crawler.Run(ctx, config.ModeFresh, "/Agumon"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	visited, err := store.Visited(ctx, "/Artbook")
	if err != nil {
		t.Fatalf("Visited() error: %v", err)
	}
	if !visited {
		t.Error("non-creature page was not marked visited")
	}

	entity, err := store.EntityBySite(ctx, "/Artbook")
	if err != nil {
		t.Fatalf("EntityBySite() error: %v", err)
	}
	if entity != nil {
		t.Errorf("entity = %+v, want none for a non-creature page", entity)
	}
}

// TestRun_FetchFailureSkipsSite tests that a failing site is skipped
// and left eligible for a later retry.
func TestRun_FetchFailureSkipsSite(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/Agumon": creaturePage("Agumon",
			nil,
			[]evolutionEntry{
				{site: "/Greymon"},
				{site: "/Missing"},
			}),
		"/Greymon": creaturePage("Greymon", nil, nil),
	}

	crawler, store, fetcher := setupCrawler(t, pages)
	fetcher.errs["/Missing"] = &fetch.FetchError{Site: "/Missing", Err: errors.New("status 503")}
	ctx := context.Background()

	if err := crawler.Run(ctx, config.ModeFresh, "/Agumon"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// The failed site stays unvisited; a resume run will pick it up.
	visited, err := store.Visited(ctx, "/Missing")
	if err != nil {
		t.Fatalf("Visited() error: %v", err)
	}
	if visited {
		t.Error("failed site was marked visited")
	}

	visited, err = store.Visited(ctx, "/Greymon")
	if err != nil {
		t.Fatalf("Visited() error: %v", err)
	}
	if !visited {
		t.Error("healthy sibling was not crawled")
	}
}

// TestRun_ResumeMode tests seeding from stored-but-unvisited targets.
func TestRun_ResumeMode(t *testing.T) {
	t.Parallel()

	crawler, store, fetcher := setupCrawler(t, evolutionGraph())
	ctx := context.Background()

	// Simulate an interrupted crawl: Agumon is done, its targets are
	// not.
	entity, err := store.RegisterEntity(ctx, &model.Entity{
		Name:       "Agumon",
		SiteID:     "/Agumon",
		CachedHTML: evolutionGraph()["/Agumon"],
	})
	if err != nil {
		t.Fatalf("RegisterEntity() error: %v", err)
	}
	if err := store.SetEvolutionLinks(ctx, entity.ID, []string{"/Koromon"}, []string{"/Greymon"}); err != nil {
		t.Fatalf("SetEvolutionLinks() error: %v", err)
	}
	if err := store.MarkVisited(ctx, "/Agumon"); err != nil {
		t.Fatalf("MarkVisited() error: %v", err)
	}

	if err := crawler.Run(ctx, config.ModeResume, ""); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, site := range []string{"/Koromon", "/Greymon"} {
		visited, err := store.Visited(ctx, site)
		if err != nil {
			t.Fatalf("Visited(%s) error: %v", site, err)
		}
		if !visited {
			t.Errorf("resume did not reach %s", site)
		}
	}
	if fetcher.calls["/Agumon"] != 0 {
		t.Errorf("resume refetched a finished site %d times", fetcher.calls["/Agumon"])
	}
}

// TestRun_RefillMode tests seeding from entities whose links were never
// extracted.
func TestRun_RefillMode(t *testing.T) {
	t.Parallel()

	crawler, store, _ := setupCrawler(t, evolutionGraph())
	ctx := context.Background()

	// An entity registered without link extraction, as an aborted
	// visit leaves it.
	if _, err := store.RegisterEntity(ctx, &model.Entity{
		Name:       "Agumon",
		SiteID:     "/Agumon",
		CachedHTML: evolutionGraph()["/Agumon"],
	}); err != nil {
		t.Fatalf("RegisterEntity() error: %v", err)
	}

	if err := crawler.Run(ctx, config.ModeRefill, ""); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	entity, err := store.EntityBySite(ctx, "/Agumon")
	if err != nil {
		t.Fatalf("EntityBySite() error: %v", err)
	}
	if !entity.LinksExtracted() {
		t.Error("refill did not extract links")
	}
	if want := []string{"/Koromon"}; !reflect.DeepEqual(entity.PrevLinks, want) {
		t.Errorf("PrevLinks = %v, want %v", entity.PrevLinks, want)
	}
}

// TestRun_NonLocalSite tests that external URLs never enter the crawl.
func TestRun_NonLocalSite(t *testing.T) {
	t.Parallel()

	crawler, _, fetcher := setupCrawler(t, nil)

	if err := crawler.Run(context.Background(), config.ModeFresh, "https://example.com/Agumon"); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("fetcher calls = %v, want none for a non-local start", fetcher.calls)
	}
}

// TestRun_Cancellation tests that a canceled context stops the
// traversal.
func TestRun_Cancellation(t *testing.T) {
	t.Parallel()

	crawler, _, _ := setupCrawler(t, evolutionGraph())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := crawler.Run(ctx, config.ModeFresh, "/Agumon"); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
