package scrape

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/digivice-labs/digigraph/internal/model"
)

// RefCache is the persistent memo of citation-target classifications.
// The database package's Store implements it over the refs table.
type RefCache interface {
	// Ref looks up a classification under either identifier spelling,
	// returning nil on a miss.
	Ref(ctx context.Context, site, altSite string) (*model.Reference, error)

	// PutRef stores a classification with the content it came from.
	PutRef(ctx context.Context, site, html string, isCard bool) error
}

// Classifier decides whether a citation target is a card-game-only
// reference. Results are memoized through the RefCache, giving
// at-most-one-fetch-per-target behavior across an entire crawl: many
// pages cite the same few sources, so the cache is hit far more often
// than the network.
//
// The classifier is a pure function over its cache and fetcher
// capabilities; it holds no other state, which keeps it independently
// testable with fakes.
type Classifier struct {
	// refs is the persistent classification memo.
	refs RefCache

	// fetcher retrieves target pages on a cache miss.
	fetcher Fetcher

	// assumeCardsFilled treats every cache miss as "not a card"
	// without fetching. Only sensible after the card-list prefill has
	// populated the cache; it exists as an explicit opt-in escape
	// hatch, never a default.
	assumeCardsFilled bool

	// logger receives classification diagnostics.
	logger *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithAssumeCardsFilled enables the no-fetch escape hatch.
func WithAssumeCardsFilled(assume bool) ClassifierOption {
	return func(c *Classifier) {
		c.assumeCardsFilled = assume
	}
}

// WithClassifierLogger sets the logger for classification diagnostics.
func WithClassifierLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// NewClassifier creates a Classifier over the given cache and fetcher.
func NewClassifier(refs RefCache, fetcher Fetcher, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		refs:    refs,
		fetcher: fetcher,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// IsCardOnly classifies a citation target, returning whether it belongs
// to the card-game namespace. Failures to fetch or parse the target are
// wrapped in a ClassificationError; callers exclude that citation and
// move on.
func (c *Classifier) IsCardOnly(ctx context.Context, site string) (bool, error) {
	// The cache may hold the target under either the raw or the
	// percent-encoded spelling, depending on which path wrote it, so
	// both are checked in one lookup.
	ref, err := c.refs.Ref(ctx, encodeSite(site), site)
	if err != nil {
		return false, err
	}
	if ref != nil {
		return ref.IsCard, nil
	}

	if c.assumeCardsFilled {
		c.logger.Debug("uncached reference assumed non-card", "target", site)
		return false, nil
	}

	return c.classify(ctx, site)
}

// classify fetches and inspects a target page, persisting the verdict
// before returning it.
func (c *Classifier) classify(ctx context.Context, site string) (bool, error) {
	html, err := c.fetcher.Fetch(ctx, site)
	if err != nil {
		return false, &ClassificationError{Target: site, Err: err}
	}

	doc, err := parseDocument(site, html)
	if err != nil {
		return false, &ClassificationError{Target: site, Err: err}
	}

	isCard := doc.Find(cardCategorySelector).Length() > 0

	if err := c.refs.PutRef(ctx, site, html, isCard); err != nil {
		return false, err
	}

	c.logger.Debug("reference classified", "target", site, "isCard", isCard)
	return isCard, nil
}

// encodeSite canonicalizes a site identifier's percent-encoding, the
// alternate spelling checked on cache lookups.
func encodeSite(site string) string {
	u := url.URL{Path: site}
	return u.EscapedPath()
}
