// Package config provides configuration structures and utilities for
// digigraph. It defines the crawl thresholds, pacing policy, storage
// location, and the optional YAML file overrides.
package config
