// Package fetch provides the paced HTTP page fetcher.
//
// The fetcher is specialized to one wiki: site identifiers are rooted
// paths ("/Agumon") resolved against a single base URL. Before any
// network access the page cache is consulted, and a cached copy
// satisfies the request with no request issued at all.
//
// # Politeness
//
// Every uncached fetch waits a fixed pacing delay first, and uncached
// fetches are serialized: no two network requests are ever in flight
// concurrently. This is a deliberate constraint against a shared
// community wiki, not an accidental limitation. Cache hits carry no
// such cost and may be issued freely.
package fetch
