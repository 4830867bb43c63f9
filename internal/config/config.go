package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The crawl thresholds mirror the values the evolution data set was
// originally built with; changing them changes which edges are accepted.
const (
	// DefaultBaseURL is the wiki the crawler is specialized to.
	// Site identifiers are paths relative to this host.
	DefaultBaseURL = "https://wikimon.net"

	// DefaultStartSite is the seed page for a fresh crawl. Any creature
	// page works as a seed; the crawl expands through its evolution
	// links in both directions.
	DefaultStartSite = "/Reptilimon"

	// DefaultMinReferences is the number of non-card citations a
	// candidate evolution needs before it is accepted. Two independent
	// non-card sources filters out most vandalism and card-game-only
	// claims without discarding legitimate sparse citations.
	DefaultMinReferences = 2

	// DefaultLowEvoThreshold is the candidate count at or below which
	// the minimum-reference floor is waived for a direction. Pages
	// listing only a handful of evolutions are unlikely to be noise,
	// so the per-candidate evidence bar is skipped entirely.
	DefaultLowEvoThreshold = 3

	// DefaultFetchDelay is the pause inserted before every uncached
	// network fetch. This is a politeness setting against a shared
	// community wiki, not a tunable for throughput.
	DefaultFetchDelay = 1500 * time.Millisecond

	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies digigraph in HTTP requests so wiki
	// operators can recognize scraper traffic in their logs.
	DefaultUserAgent = "digigraph/1.0 (+https://github.com/digivice-labs/digigraph)"

	// DefaultMaxBodySize limits how much of a response body is read.
	// Wiki pages are well under 2MB; anything larger is truncated to
	// keep a single misbehaving page from exhausting memory.
	DefaultMaxBodySize = 2 * 1024 * 1024

	// DefaultParseWorkers bounds the parallelism of the metadata
	// refill, which parses already-cached pages and performs no
	// network I/O.
	DefaultParseWorkers = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "digigraph"
)

// Mode selects the crawl seeding strategy.
type Mode int

const (
	// ModeFresh seeds the frontier with a single start site.
	ModeFresh Mode = iota

	// ModeResume seeds the frontier with every link target recorded in
	// any entity's link lists that was never visited, picking up work
	// an earlier aborted run left behind.
	ModeResume

	// ModeRefill seeds the frontier with every entity whose link lists
	// were never extracted (both still unset), for records created
	// before link extraction existed.
	ModeRefill
)

// String returns the mode name used in logs and error messages.
func (m Mode) String() string {
	switch m {
	case ModeFresh:
		return "fresh"
	case ModeResume:
		return "resume"
	case ModeRefill:
		return "refill"
	default:
		return "unknown"
	}
}

// Config holds all configuration options for digigraph.
// It is populated from CLI flags (optionally merged with a YAML file)
// and passed through the application via dependency injection rather
// than global state.
type Config struct {
	// BaseURL is the wiki host prepended to site identifiers when
	// fetching. No trailing slash.
	BaseURL string

	// StartSite is the seed page path for a fresh crawl, e.g.
	// "/Reptilimon". Ignored in resume and refill modes.
	StartSite string

	// Mode selects the crawl seeding strategy.
	Mode Mode

	// MinReferences is the per-candidate non-card citation floor.
	MinReferences int

	// LowEvoThreshold waives MinReferences for a direction when the
	// page lists this many candidates or fewer in that direction.
	LowEvoThreshold int

	// IgnoreCardOnlyRefs drops candidates whose every counted citation
	// classifies as card-only. Enabled by default; an all-card-sourced
	// claim is not trusted evidence of a real evolution.
	IgnoreCardOnlyRefs bool

	// AssumeCardsFilled makes the classifier treat every cache miss as
	// "not a card" without fetching. Only safe after the card-list
	// prefill has populated the reference cache.
	AssumeCardsFilled bool

	// FetchDelay is the pause before each uncached network fetch.
	FetchDelay time.Duration

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ParseWorkers bounds parallelism for cache-only parse work
	// (metadata refill). Network fetches are never parallelized.
	ParseWorkers int

	// DBDir is the directory holding the SQLite database. Defaults to
	// the XDG data directory.
	DBDir string

	// ConfigFilePath is an explicit YAML config file path. Empty means
	// search the standard locations.
	ConfigFilePath string

	// Verbose enables debug-level log output.
	Verbose bool
}

// NewConfig creates a Config with default values. Non-zero defaults are
// set here rather than relying on zero values so the defaults are
// documented in one place.
func NewConfig() *Config {
	return &Config{
		BaseURL:            DefaultBaseURL,
		StartSite:          DefaultStartSite,
		Mode:               ModeFresh,
		MinReferences:      DefaultMinReferences,
		LowEvoThreshold:    DefaultLowEvoThreshold,
		IgnoreCardOnlyRefs: true,
		FetchDelay:         DefaultFetchDelay,
		Timeout:            DefaultTimeout,
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
		ParseWorkers:       DefaultParseWorkers,
		DBDir:              XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for digigraph.
// On Linux: ~/.local/share/digigraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for digigraph.
// On Linux: ~/.config/digigraph
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid. It returns the first
// error found; fixing one error often makes the rest irrelevant.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	if c.Mode == ModeFresh && !isSitePath(c.StartSite) {
		return ErrInvalidStartSite
	}

	if c.MinReferences < 0 {
		return ErrInvalidMinReferences
	}

	if c.LowEvoThreshold < 0 {
		return ErrInvalidLowEvoThreshold
	}

	if c.FetchDelay < 0 {
		return ErrInvalidFetchDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ParseWorkers <= 0 {
		return ErrInvalidParseWorkers
	}

	return nil
}

// isSitePath reports whether s looks like a local site identifier.
// All wiki-local pages are rooted paths; anything else is external and
// can never become an entity.
func isSitePath(s string) bool {
	return len(s) > 1 && s[0] == '/'
}
