package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CardClassifier answers whether a citation target is a card-game-only
// reference. Classifier implements it; tests substitute fakes.
type CardClassifier interface {
	IsCardOnly(ctx context.Context, site string) (bool, error)
}

// scanMode is the state of the extractor's section register while it
// walks a page in document order.
type scanMode int

const (
	// modeNone means no evolution section has been entered yet.
	modeNone scanMode = iota

	// modePrev means the walk is inside the "evolves from" section.
	modePrev

	// modeNext means the walk is inside the "evolves to" section.
	modeNext
)

// candidate is an evolution link with its supporting citation count,
// held until the per-direction threshold pass decides its fate.
type candidate struct {
	site    string
	nonCard int
}

// Extractor pulls evolution links out of a creature page. It pairs a
// document-order section walk with a citation-strength policy: a link
// survives only if enough of its citations point at non-card sources,
// unless the whole direction is sparse enough to accept on faith.
type Extractor struct {
	// classifier resolves citation targets to card/non-card verdicts.
	classifier CardClassifier

	// minReferences is the non-card citation count a candidate needs.
	minReferences int

	// lowEvoThreshold is the direction size at or below which the
	// minimum-reference requirement is waived.
	lowEvoThreshold int

	// keepCardOnly disables dropping candidates whose citations are
	// exclusively card-game sources.
	keepCardOnly bool

	// logger receives per-citation and per-candidate diagnostics.
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithKeepCardOnly keeps candidates backed only by card-game citations.
func WithKeepCardOnly(keep bool) ExtractorOption {
	return func(e *Extractor) {
		e.keepCardOnly = keep
	}
}

// WithExtractorLogger sets the logger for extraction diagnostics.
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor with the given citation thresholds.
func NewExtractor(classifier CardClassifier, minReferences, lowEvoThreshold int, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		classifier:      classifier,
		minReferences:   minReferences,
		lowEvoThreshold: lowEvoThreshold,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Extract walks the document and returns the accepted previous and next
// evolution links, in document order. Citation-level failures are
// logged and excluded; only classifier cache errors (or context
// cancellation) abort the extraction.
func (e *Extractor) Extract(ctx context.Context, doc *goquery.Document) (prev, next []string, err error) {
	var (
		mode      scanMode
		prevCands []candidate
		nextCands []candidate
		scanErr   error
	)

	citationArea := doc.Find(referencesSelector)

	doc.Find(scanSelector).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(item.Text()))

		if goquery.NodeName(item) == "h2" {
			switch {
			case strings.Contains(text, "evolves from"):
				mode = modePrev
			case strings.Contains(text, "evolves to"):
				mode = modeNext
			case mode == modeNext:
				// Past the last evolution section; nothing below
				// matters.
				return false
			}
			return true
		}

		if mode == modeNone {
			return true
		}

		href, ok := item.Attr("href")
		if !ok {
			return true
		}

		// Anchors describing the link's own card-game context are not
		// evolution targets.
		if strings.Contains(text, "card game") {
			return true
		}

		cardOnly, nonCard, total, err := e.citationStrength(ctx, item, citationArea)
		if err != nil {
			scanErr = err
			return false
		}

		if cardOnly && total > 0 && !e.keepCardOnly {
			e.logger.Debug("dropping card-only candidate", "target", href)
			return true
		}

		switch mode {
		case modePrev:
			prevCands = append(prevCands, candidate{site: href, nonCard: nonCard})
		case modeNext:
			nextCands = append(nextCands, candidate{site: href, nonCard: nonCard})
		}
		return true
	})
	if scanErr != nil {
		return nil, nil, scanErr
	}

	return e.applyThreshold(prevCands), e.applyThreshold(nextCands), nil
}

// citationStrength classifies every citation attached to a candidate's
// list item. It returns whether all counted citations were card-game
// sources, the number of non-card citations, and the total citation
// marker count. Citations that cannot be resolved or classified are
// excluded from the counts without clearing the card-only verdict.
func (e *Extractor) citationStrength(ctx context.Context, item, citationArea *goquery.Selection) (cardOnly bool, nonCard, total int, err error) {
	markers := collectCitationMarkers(item)

	cardOnly = true
	total = len(markers)

	for _, marker := range markers {
		target, err := resolveCitation(marker, citationArea)
		if err != nil {
			e.logger.Warn("citation skipped", "marker", marker, "err", err)
			continue
		}

		// The battle-spirits franchise publishes card material only;
		// its citations never count either way.
		if strings.Contains(strings.ToLower(target), "battle-spirits") {
			continue
		}

		if !isSiteLocal(target) {
			e.logger.Debug("skipping non-local reference", "target", target)
			continue
		}

		isCard, err := e.classifier.IsCardOnly(ctx, target)
		if err != nil {
			var classErr *ClassificationError
			if errors.As(err, &classErr) &&
				!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				e.logger.Warn("citation classification failed", "marker", marker, "err", err)
				continue
			}
			return false, 0, 0, err
		}

		if !isCard {
			cardOnly = false
			nonCard++
		}
	}

	return cardOnly, nonCard, total, nil
}

// applyThreshold keeps candidates with enough non-card citations, or
// everything when the direction is small enough that weak sourcing is
// still the best signal available.
func (e *Extractor) applyThreshold(cands []candidate) []string {
	accepted := make([]string, 0, len(cands))
	for _, c := range cands {
		if c.nonCard >= e.minReferences || len(cands) <= e.lowEvoThreshold {
			accepted = append(accepted, c.site)
		}
	}
	return accepted
}

// collectCitationMarkers gathers the citation anchors of the list item
// enclosing a candidate link.
func collectCitationMarkers(item *goquery.Selection) []string {
	var markers []string
	item.Closest("li").Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if ok && strings.HasPrefix(href, citationMarkerPrefix) {
			markers = append(markers, href)
		}
	})
	return markers
}

// resolveCitation follows a citation marker into the references section
// and returns the href of the first link in its reference text.
func resolveCitation(marker string, citationArea *goquery.Selection) (string, error) {
	id := strings.TrimPrefix(marker, "#")
	link := citationArea.Find(fmt.Sprintf("[id='%s'] .reference-text a", id)).First()

	href, ok := link.Attr("href")
	if !ok {
		return "", ErrMissingCitationTarget
	}
	return href, nil
}
