// Package main provides the entry point for the digigraph CLI.
//
// Digigraph reconstructs Digimon evolution graphs by crawling
// wikimon.net, persisting pages and classifications in SQLite so an
// interrupted crawl resumes without repeating work.
//
// Usage:
//
//	digigraph crawl
//	digigraph crawl --resume
//	digigraph export --graphml -o digimon.graphml
//
// See --help for all available options.
package main

// main is the entry point for digigraph.
func main() {
	Execute()
}
