package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Site-structure selectors. These encode the one document family the
// crawler understands; they are not general-purpose.
const (
	// creatureCategorySelector identifies a creature page by its
	// category membership in the page footer.
	creatureCategorySelector = "#catlinks a[title='Category:Digimon']"

	// cardCategorySelector identifies a card-list page, the marker the
	// classifier looks for.
	cardCategorySelector = "a[title='Category:List of Cards']"

	// headingSelector is the page title element.
	headingSelector = "#firstHeading"

	// referencesSelector is the references section holding citation
	// targets.
	referencesSelector = ".references"

	// scanSelector selects, in document order, the section headings and
	// the first eligible link of each list item. The extractor's mode
	// register runs over exactly this sequence.
	scanSelector = "li a[title]:first-of-type, h2"

	// citationMarkerPrefix is the reserved href prefix of intra-document
	// citation anchors.
	citationMarkerPrefix = "#cite"
)

// Fetcher retrieves the raw content of a site identifier.
// The fetch package's Client implements it with cache-first, paced
// network access.
type Fetcher interface {
	Fetch(ctx context.Context, site string) (string, error)
}

// parseDocument parses raw page content, wrapping failures in a
// ParseError carrying the site identifier.
func parseDocument(site, html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Site: site, Err: err}
	}
	return doc, nil
}

// isCreaturePage reports whether the document is a creature page.
// Everything else on the wiki (card pages, books, staff pages) is
// remembered as visited but never becomes an entity.
func isCreaturePage(doc *goquery.Document) bool {
	return doc.Find(creatureCategorySelector).Length() > 0
}

// pageTitle extracts the canonical display name from the page heading.
// A trailing slash is an artifact of subpage titles and is stripped.
func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find(headingSelector).First().Text())
	return strings.TrimSuffix(title, "/")
}

// isSiteLocal reports whether an href is a wiki-local site identifier.
func isSiteLocal(href string) bool {
	return strings.HasPrefix(href, "/")
}
