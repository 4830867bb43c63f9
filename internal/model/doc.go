// Package model defines the domain types shared across digigraph.
//
// The central type is Entity, one row per discovered creature page,
// carrying the cached raw page and the accepted evolution links in both
// directions. Reference records the card/non-card classification of a
// citation target. Stage provides the evolution-stage taxonomy used by
// the metadata refill and the export tooling.
//
// Design decision: model types are plain structs with no behavior beyond
// small derivation helpers. All persistence concerns live in the database
// package; all extraction concerns live in the scrape package. This keeps
// the model importable from every layer without cycles.
package model
