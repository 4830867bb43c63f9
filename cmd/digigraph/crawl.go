package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/digivice-labs/digigraph/internal/config"
	"github.com/digivice-labs/digigraph/internal/database"
	"github.com/digivice-labs/digigraph/internal/fetch"
	"github.com/digivice-labs/digigraph/internal/scrape"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl wikimon.net and build the evolution graph",
		Long: `Crawl traverses creature pages starting from a seed page, extracting
evolution links backed by the page's citations and following them in
both directions until the reachable graph is exhausted.

Every fetched page and every citation classification is persisted, so
stopping and restarting a crawl costs nothing. One network request is
issued at a time with a politeness delay; only cached work runs fast.

Examples:
  # Crawl from the default seed page
  digigraph crawl

  # Crawl from a specific page
  digigraph crawl --start /Agumon

  # Pick up targets an interrupted crawl left unvisited
  digigraph crawl --resume

  # Re-extract links for entities stored without them
  digigraph crawl --refill

  # Accept evolution claims sourced only from card games
  digigraph crawl --keep-card-only`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("start", "s", config.DefaultStartSite,
		"Seed page path for a fresh crawl (e.g. /Reptilimon)")
	cmd.Flags().BoolP("resume", "r", false,
		"Seed from stored link targets that were never visited")
	cmd.Flags().Bool("refill", false,
		"Seed from entities whose links were never extracted")

	cmd.Flags().Int("min-refs", config.DefaultMinReferences,
		"Non-card citations a candidate evolution needs")
	cmd.Flags().Int("low-evo-threshold", config.DefaultLowEvoThreshold,
		"Direction size at or below which min-refs is waived")
	cmd.Flags().Bool("keep-card-only", false,
		"Keep candidates whose citations are all card-game sources")
	cmd.Flags().Bool("assume-cards-filled", false,
		"Treat unclassified citation targets as non-card without fetching")

	cmd.Flags().DurationP("delay", "d", config.DefaultFetchDelay,
		"Pause before each uncached network fetch")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")

	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"Wiki host prepended to site paths")
	cmd.Flags().String("db-dir", "",
		"Directory holding the SQLite database (default: XDG data dir)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .digigraph.yaml in current or config directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags, merged over
// any YAML configuration file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// The file merges over the defaults first; flags the user actually
	// set win over the file below. An explicitly named config file must
	// exist; the default search locations may simply have nothing in
	// them.
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	flags := cmd.Flags()

	if flags.Changed("start") {
		if cfg.StartSite, err = flags.GetString("start"); err != nil {
			return nil, err
		}
	}

	resume, err := flags.GetBool("resume")
	if err != nil {
		return nil, err
	}
	refill, err := flags.GetBool("refill")
	if err != nil {
		return nil, err
	}
	switch {
	case resume && refill:
		return nil, errors.New("--resume and --refill are mutually exclusive")
	case resume:
		cfg.Mode = config.ModeResume
	case refill:
		cfg.Mode = config.ModeRefill
	}

	if flags.Changed("min-refs") {
		if cfg.MinReferences, err = flags.GetInt("min-refs"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("low-evo-threshold") {
		if cfg.LowEvoThreshold, err = flags.GetInt("low-evo-threshold"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("keep-card-only") {
		keepCardOnly, err := flags.GetBool("keep-card-only")
		if err != nil {
			return nil, err
		}
		cfg.IgnoreCardOnlyRefs = !keepCardOnly
	}

	if flags.Changed("assume-cards-filled") {
		if cfg.AssumeCardsFilled, err = flags.GetBool("assume-cards-filled"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("delay") {
		if cfg.FetchDelay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// openStore opens the SQLite database in the configured directory.
func openStore(cfg *config.Config) (*database.Store, error) {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// newFetchClient wires the cache-first, paced HTTP client over the
// store.
func newFetchClient(cfg *config.Config, store *database.Store, logger *slog.Logger) *fetch.Client {
	return fetch.NewClient(cfg.BaseURL, store,
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		fetch.WithDelay(cfg.FetchDelay),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database opened", "path", store.Path())

	fetcher := newFetchClient(cfg, store, logger)
	classifier := scrape.NewClassifier(store, fetcher,
		scrape.WithAssumeCardsFilled(cfg.AssumeCardsFilled),
		scrape.WithClassifierLogger(logger),
	)
	extractor := scrape.NewExtractor(classifier, cfg.MinReferences, cfg.LowEvoThreshold,
		scrape.WithKeepCardOnly(!cfg.IgnoreCardOnlyRefs),
		scrape.WithExtractorLogger(logger),
	)
	crawler := scrape.NewCrawler(store, fetcher, extractor, logger)

	if err := crawler.Run(ctx, cfg.Mode, cfg.StartSite); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("crawl interrupted; rerun with --resume to continue")
			return nil
		}
		return fmt.Errorf("crawl failed: %w", err)
	}

	logger.Info("crawl complete")
	return nil
}
