package model

// Reference is the cached classification of a citation target.
//
// Classification is write-once: once a target has been fetched and
// classified, the stored verdict is reused for every later citation of
// the same target, across runs. There is no invalidation; if the wiki
// later moves a page in or out of the card-list category the stored
// verdict goes stale. This is an accepted risk, not a bug.
type Reference struct {
	// ID is the database identity of the cached record.
	ID int64

	// SiteID is the citation target's wiki path. It may be stored in
	// either raw or percent-encoded form depending on which extraction
	// path wrote it, so lookups must check both.
	SiteID string

	// HTML is the raw content of the target page at classification time.
	// Empty for records seeded by the card-list prefill, which never
	// fetches individual pages.
	HTML string

	// IsCard reports whether the target carries the card-list category
	// marker, making citations of it weak evidence for an evolution.
	IsCard bool
}
