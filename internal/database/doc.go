// Package database provides SQLite-based storage for digigraph.
//
// This package implements the Store, which persists:
//   - Entity records (one per discovered creature page) with cached raw
//     content and the accepted evolution link lists
//   - The visitation ledger, recording every site identifier that was
//     ever attempted, independent of whether it became an entity
//   - The reference cache, memoizing the card/non-card classification
//     of citation targets
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of
// other databases because:
//  1. No external dependencies - the database is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. A crawl is a single writer; SQLite's model fits exactly
//  4. WAL mode provides good concurrent read performance
//
// Link lists are stored as JSON array columns. The invariant that
// matters is write-once-per-extraction: SetEvolutionLinks always
// replaces both lists wholesale, it never merges. Resume seeding reads
// the same columns back through SQLite's json_each.
package database
