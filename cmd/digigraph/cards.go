package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/digivice-labs/digigraph/internal/config"
	"github.com/digivice-labs/digigraph/internal/scrape"
)

// NewCardsCmd creates the cards command.
func NewCardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Prefill the reference cache from the card-list category",
		Long: `Cards walks the wiki's card-list category and records every member as
a known card reference.

Run before the first crawl, this spares the extractor from fetching each
card page individually the first time one is cited; combined with
--assume-cards-filled on the crawl it eliminates classification fetches
entirely.`,
		Args: cobra.NoArgs,
		RunE: runCardsCmd,
	}

	cmd.Flags().DurationP("delay", "d", config.DefaultFetchDelay,
		"Pause before each uncached network fetch")
	cmd.Flags().String("db-dir", "",
		"Directory holding the SQLite database (default: XDG data dir)")

	return cmd
}

// runCardsCmd executes the cards command.
func runCardsCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.FetchDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return err
	}
	if dbDir, err := cmd.Flags().GetString("db-dir"); err != nil {
		return err
	} else if dbDir != "" {
		cfg.DBDir = dbDir
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

	fetcher := newFetchClient(cfg, store, logger)
	lister := scrape.NewCardLister(store, fetcher, logger)

	inserted, err := lister.Run(ctx)
	if err != nil {
		return fmt.Errorf("card prefill failed: %w", err)
	}

	total, cards, err := store.CountRefs(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored %d new card references (%d cards of %d cached references)\n",
		inserted, cards, total)
	return nil
}
