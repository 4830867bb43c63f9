package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// mustParse parses fixture HTML into a document.
func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

// fakeClassifier is a canned CardClassifier recording its calls.
type fakeClassifier struct {
	cards map[string]bool
	errs  map[string]error
	calls map[string]int
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{
		cards: make(map[string]bool),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeClassifier) IsCardOnly(_ context.Context, site string) (bool, error) {
	f.calls[site]++
	if err, ok := f.errs[site]; ok {
		return false, err
	}
	return f.cards[site], nil
}

// mapFetcher serves canned pages keyed by site identifier and counts
// fetches.
type mapFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls map[string]int
}

func newMapFetcher(pages map[string]string) *mapFetcher {
	return &mapFetcher{
		pages: pages,
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *mapFetcher) Fetch(_ context.Context, site string) (string, error) {
	f.calls[site]++
	if err, ok := f.errs[site]; ok {
		return "", err
	}
	html, ok := f.pages[site]
	if !ok {
		return "", errors.New("no such page: " + site)
	}
	return html, nil
}

// evolutionEntry is one list item in a fixture's evolution section.
type evolutionEntry struct {
	site      string
	citations []string // reference-target hrefs, one citation each
}

// creaturePage builds a creature page with the given evolution
// sections. Citation markers and reference entries are numbered across
// both sections in order of appearance.
func creaturePage(name string, prev, next []evolutionEntry) string {
	var b strings.Builder
	var refs strings.Builder
	n := 0

	section := func(heading string, entries []evolutionEntry) {
		fmt.Fprintf(&b, "<h2>%s</h2><ul>", heading)
		for _, e := range entries {
			title := strings.TrimPrefix(e.site, "/")
			fmt.Fprintf(&b, "<li><a title=%q href=%q>%s</a>", title, e.site, title)
			for _, target := range e.citations {
				n++
				fmt.Fprintf(&b, `<sup><a href="#cite_note-%d">[%d]</a></sup>`, n, n)
				fmt.Fprintf(&refs, `<li id="cite_note-%d"><span class="reference-text"><a href=%q>src</a></span></li>`,
					n, target)
			}
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
	}

	var page strings.Builder
	fmt.Fprintf(&page, `<html><body><h1 id="firstHeading">%s</h1>`, name)
	page.WriteString(`<div id="catlinks"><a title="Category:Digimon" href="/Category:Digimon">Digimon</a></div>`)

	section("Evolves From", prev)
	section("Evolves To", next)
	page.WriteString(b.String())

	page.WriteString(`<h2>Gallery</h2><ul><li><a title="Artwork" href="/Artwork">Artwork</a></li></ul>`)
	fmt.Fprintf(&page, `<ol class="references">%s</ol>`, refs.String())
	page.WriteString("</body></html>")
	return page.String()
}

// nonCreaturePage builds a page without the creature category marker.
func nonCreaturePage(name string) string {
	return fmt.Sprintf(`<html><body><h1 id="firstHeading">%s</h1>`+
		`<div id="catlinks"><a title="Category:Books" href="/Category:Books">Books</a></div>`+
		`</body></html>`, name)
}

// cardPage builds a page carrying the card-list category marker.
func cardPage(name string) string {
	return fmt.Sprintf(`<html><body><h1 id="firstHeading">%s</h1>`+
		`<a title="Category:List of Cards" href="/Category:List_of_Cards">cards</a>`+
		`</body></html>`, name)
}

// sourcePage builds a plain page with no category markers, a non-card
// citation source.
func sourcePage(name string) string {
	return fmt.Sprintf(`<html><body><h1 id="firstHeading">%s</h1><p>reference material</p></body></html>`, name)
}
