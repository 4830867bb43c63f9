// Package scrape implements the crawl and extraction engine.
//
// # Architecture
//
// The package is built from three cooperating pieces:
//
//   - Crawler: the traversal controller. It drains a LIFO frontier of
//     site identifiers, consults the visitation ledger so no site is
//     ever attempted twice, and re-seeds the frontier from the links
//     each visited page yields. Three seeding strategies (fresh,
//     resume, refill) all feed the same drain loop.
//   - Extractor: given a parsed page, walks its headings and links in
//     document order, collects candidate evolution edges from the
//     "Evolves From" / "Evolves To" sections, and filters them by the
//     citation evidence attached to each candidate's list item.
//   - Classifier: decides whether a citation target belongs to the
//     trading-card-game namespace. Classification may itself require a
//     fetch, and is memoized through the reference cache so every
//     target is fetched at most once per database, ever.
//
// Two supporting passes share the same parsing layer: CardLister
// prefills the reference cache from the wiki's card-list category, and
// MetadataRefiller extracts infobox metadata from already-cached pages.
//
// # Failure isolation
//
// No failure below the store level aborts a crawl. A fetch or parse
// failure skips that one site and leaves it unvisited, so a later run
// retries it; a classification failure excludes that one citation from
// its candidate's count; a citation marker with no resolvable target is
// logged and skipped. Only a persistent-store failure stops the run,
// because without durable visitation state the crawl cannot avoid
// repeating work.
//
// # Document access
//
// Pages are parsed with goquery. The extractor leans on two of its
// operations: selector queries returned in document order, and the
// nearest-ancestor walk (Closest) that ties a candidate link back to
// the list item carrying its citations.
package scrape
