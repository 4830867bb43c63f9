package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/digivice-labs/digigraph/internal/config"
	"github.com/digivice-labs/digigraph/internal/scrape"
)

// NewMetaCmd creates the meta command.
func NewMetaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Extract stage, type and attribute from cached pages",
		Long: `Meta parses the infobox of every entity whose page is already cached
but whose metadata was never extracted, filling in the evolution stage,
type and attribute columns.

It reads only the local cache and issues no network requests, so it is
safe to run at full parallelism at any point after a crawl.`,
		Args: cobra.NoArgs,
		RunE: runMetaCmd,
	}

	cmd.Flags().IntP("workers", "w", config.DefaultParseWorkers,
		"Number of parallel parse workers")
	cmd.Flags().String("db-dir", "",
		"Directory holding the SQLite database (default: XDG data dir)")

	return cmd
}

// runMetaCmd executes the meta command.
func runMetaCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ParseWorkers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return err
	}
	if dbDir, err := cmd.Flags().GetString("db-dir"); err != nil {
		return err
	} else if dbDir != "" {
		cfg.DBDir = dbDir
	}
	if cfg.ParseWorkers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", cfg.ParseWorkers)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	refiller := scrape.NewMetadataRefiller(store, cfg.ParseWorkers, logger)
	updated, err := refiller.Run(ctx)
	if err != nil {
		return fmt.Errorf("metadata refill failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "updated %d entities\n", updated)
	return nil
}
