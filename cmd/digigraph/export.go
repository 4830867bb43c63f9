package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/digivice-labs/digigraph/internal/config"
	"github.com/digivice-labs/digigraph/internal/export"
	"github.com/digivice-labs/digigraph/internal/model"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored evolution graph",
		Long: `Export renders the crawled evolution graph into an external format.

GraphML output covers the full undirected graph, or one creature's
directed evolution line with --line. Markdown output is a report of all
entities grouped by evolution stage, linked back to their wiki pages.

Examples:
  # Full graph for graph tooling
  digigraph export --graphml -o digimon.graphml

  # One evolution line
  digigraph export --graphml --line Agumon -o agumon.graphml

  # Stage-grouped markdown report to stdout
  digigraph export --markdown`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().BoolP("graphml", "g", false,
		"Output GraphML (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a stage-grouped Markdown report (mutually exclusive with --graphml)")
	cmd.Flags().StringP("line", "l", "",
		"Restrict GraphML output to the named creature's evolution line")
	cmd.Flags().StringP("output", "o", "",
		"Write output to the specified file instead of stdout")
	cmd.Flags().String("title", "Evolution graph",
		"Title of the Markdown report")
	cmd.Flags().String("names", "",
		"Restrict the Markdown report to names listed in this file, one per line")
	cmd.Flags().String("db-dir", "",
		"Directory holding the SQLite database (default: XDG data dir)")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	graphml, err := cmd.Flags().GetBool("graphml")
	if err != nil {
		return err
	}
	markdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	line, err := cmd.Flags().GetString("line")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return err
	}
	namesFile, err := cmd.Flags().GetString("names")
	if err != nil {
		return err
	}

	switch {
	case graphml && markdown:
		return errors.New("--graphml and --markdown are mutually exclusive")
	case !graphml && !markdown:
		return errors.New("choose an output format: --graphml or --markdown")
	case line != "" && !graphml:
		return errors.New("--line requires --graphml")
	case namesFile != "" && !markdown:
		return errors.New("--names requires --markdown")
	}

	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if dbDir, err := cmd.Flags().GetString("db-dir"); err != nil {
		return err
	} else if dbDir != "" {
		cfg.DBDir = dbDir
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	w, closeOutput, err := openOutput(cmd, output)
	if err != nil {
		return err
	}
	defer closeOutput()

	ctx := cmd.Context()

	switch {
	case graphml && line != "":
		return export.WriteLine(ctx, w, store, line)
	case graphml:
		entities, err := store.AllEntities(ctx)
		if err != nil {
			return err
		}
		return export.WriteGraph(w, entities)
	default:
		entities, err := store.AllEntities(ctx)
		if err != nil {
			return err
		}
		if namesFile != "" {
			if entities, err = filterByNameList(entities, namesFile); err != nil {
				return err
			}
		}
		return export.NewStageReportWriter(w, cfg.BaseURL).Write(title, entities)
	}
}

// filterByNameList keeps only entities whose name appears in the given
// file, one name per line. Blank lines are ignored.
func filterByNameList(entities []*model.Entity, path string) ([]*model.Entity, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided name list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read name list: %w", err)
	}

	wanted := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			wanted[name] = true
		}
	}

	filtered := make([]*model.Entity, 0, len(wanted))
	for _, e := range entities {
		if wanted[e.Name] {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// openOutput resolves the export destination: a file when --output is
// given (creating parent directories), stdout otherwise.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
