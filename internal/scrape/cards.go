package scrape

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
)

// cardCategoryStart is the first page of the card-list category.
const cardCategoryStart = "/Category:List_of_Cards"

// CardRefStore accepts bulk card classifications. The database
// package's Store implements it.
type CardRefStore interface {
	// PutCardRefs stores the given sites as card references, skipping
	// ones already classified, and returns how many were inserted.
	PutCardRefs(ctx context.Context, sites []string) (int64, error)
}

// CardLister walks the wiki's card-list category and stores every
// member as a known card reference. Run before a crawl, it prefills the
// classification cache so the extractor almost never has to fetch a
// citation target to learn it is a card.
type CardLister struct {
	store   CardRefStore
	fetcher Fetcher
	logger  *slog.Logger
}

// NewCardLister creates a CardLister over the given store and fetcher.
func NewCardLister(store CardRefStore, fetcher Fetcher, logger *slog.Logger) *CardLister {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardLister{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Run walks every page of the card-list category. It returns the total
// number of newly stored card references.
func (l *CardLister) Run(ctx context.Context) (int64, error) {
	var inserted int64

	page := cardCategoryStart
	first := true
	for page != "" {
		next, n, err := l.listPage(ctx, page, first)
		if err != nil {
			return inserted, err
		}
		inserted += n
		page = next
		first = false
	}

	l.logger.Info("card prefill complete", "inserted", inserted)
	return inserted, nil
}

// listPage stores the card links of one category page and returns the
// identifier of the next page, or empty when the walk is done.
func (l *CardLister) listPage(ctx context.Context, site string, first bool) (next string, inserted int64, err error) {
	l.logger.Info("listing card category page", "site", site)

	html, err := l.fetcher.Fetch(ctx, site)
	if err != nil {
		return "", 0, err
	}

	doc, err := parseDocument(site, html)
	if err != nil {
		return "", 0, err
	}

	var cards []string
	doc.Find(".mw-category-group a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			cards = append(cards, href)
		}
	})

	inserted, err = l.store.PutCardRefs(ctx, cards)
	if err != nil {
		return "", 0, err
	}

	return nextCategoryPage(doc, first), inserted, nil
}

// nextCategoryPage resolves the pagination links of a category page.
// Interior pages carry four navigation links (previous and next, top
// and bottom); the second is the forward one. The first page carries
// only forward links, and the last page only backward ones, which is
// why the first-page case reads position zero and a non-first page
// without four links ends the walk.
func nextCategoryPage(doc *goquery.Document, first bool) string {
	nav := doc.Find(cardCategorySelector)

	if nav.Length() == 4 {
		href, _ := nav.Eq(1).Attr("href")
		return href
	}
	if first && nav.Length() > 0 {
		href, _ := nav.Eq(0).Attr("href")
		return href
	}
	return ""
}
