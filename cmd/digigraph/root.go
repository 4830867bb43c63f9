package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/digivice-labs/digigraph/internal/log"
)

// NewRootCmd creates the root command for digigraph.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digigraph",
		Short: "Evolution graph crawler for wikimon.net",
		Long: `Digigraph crawls wikimon.net and reconstructs the Digimon evolution
graph: which creature evolves from and to which, backed by the page's
citations rather than card-game-only claims.

All fetched pages, classification verdicts, and visitation state live in
a local SQLite database, so interrupted crawls resume where they stopped
and repeated runs never refetch finished work.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCardsCmd())
	cmd.AddCommand(NewMetaCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its
// parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the structured logger shared by all commands.
// Attribute values are truncated so a cached page body logged by
// mistake cannot flood the terminal.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so a
// crawl shuts down after the site it is working on.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
