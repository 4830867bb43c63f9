package model

// Entity represents one discovered creature page and its extracted
// evolution links.
//
// Identity rules:
//   - ID is assigned by the database on first registration and never changes.
//   - Name is the canonical display name and is unique; two pages that
//     extract to the same name are the same entity.
//   - SiteID is the page's canonical wiki path (always starting with "/").
//     The first site identifier seen for a name wins.
type Entity struct {
	// ID is the stable integer identity assigned on first discovery.
	ID int64

	// Name is the canonical display name, unique across all entities.
	Name string

	// SiteID is the wiki path identifying the page, e.g. "/Agumon".
	SiteID string

	// CachedHTML is the raw page content captured at first successful
	// fetch. It is set once and never overwritten; later runs read the
	// cache instead of refetching.
	CachedHTML string

	// Scraped reports whether link extraction has completed for this
	// entity. Together with the visitation ledger this forms the
	// tri-state "never visited / visited, not a creature / visited,
	// links extracted".
	Scraped bool

	// PrevLinks and NextLinks are the accepted evolution edges in
	// document order. A nil slice means extraction never ran; an empty
	// non-nil slice means extraction ran and accepted nothing.
	// Re-extraction overwrites the whole list, it never merges.
	PrevLinks []string
	NextLinks []string

	// Stage is the evolution stage ordinal (see Stage), 0 when unknown.
	Stage Stage

	// Type is the creature type from the infobox, empty when unknown.
	Type string

	// Attribute is the infobox attribute (Vaccine/Data/Virus...),
	// empty when unknown.
	Attribute string
}

// LinksExtracted reports whether link extraction has ever run for this
// entity. Both directions are written in one operation, so checking one
// nil is not enough: a page with an empty "Evolves From" section still
// has a non-nil empty slice recorded.
func (e *Entity) LinksExtracted() bool {
	return e.PrevLinks != nil || e.NextLinks != nil
}

// AllLinks returns the previous and next links as one slice, previous
// first. The result preserves document order within each direction and
// may contain duplicates if the source page repeats a link.
func (e *Entity) AllLinks() []string {
	links := make([]string, 0, len(e.PrevLinks)+len(e.NextLinks))
	links = append(links, e.PrevLinks...)
	links = append(links, e.NextLinks...)
	return links
}
