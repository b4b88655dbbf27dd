package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/scrapesynth/internal/config"
	"github.com/nao1215/scrapesynth/internal/database"
	"github.com/nao1215/scrapesynth/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or show recorded synthesis runs",
		Long: `History reads the runs recorded by 'scrapesynth ask' and 'scrapesynth serve'.

Each run stores its sources, instruction, modes, the model that answered,
every model attempt and the reply or the error. Page content is not stored.

Examples:
  # List the 20 most recent runs
  scrapesynth history

  # List every run as JSON
  scrapesynth history --limit 0 --json

  # Show one run
  scrapesynth history --show 3f2b8c1e-...`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Number of runs to list (0 for all)")
	cmd.Flags().StringP("show", "s", "", "Show the run with this id")
	cmd.Flags().String("db-dir", "", "Directory of the history database (default: XDG data directory)")
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if cmd.Flags().Changed("db-dir") {
		dir, err := cmd.Flags().GetString("db-dir")
		if err != nil {
			return err
		}
		cfg.DBDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	setupLogger(cmd, cfg)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("show")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	if limit < 0 {
		return fmt.Errorf("invalid limit %d: must be 0 or greater", limit)
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	w, closeOutput, err := reportWriter(cmd, cfg, report.WithVerbose(true))
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // stdout

	ctx := context.Background()
	if runID != "" {
		run, err := db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		_, err = w.Write(report.FromRun(run))
		return err
	}

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	_, err = w.WriteHistory(runs)
	return err
}
