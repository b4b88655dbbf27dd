package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/scrapesynth/internal/config"
	"github.com/nao1215/scrapesynth/internal/model"
	"github.com/nao1215/scrapesynth/internal/report"
	"github.com/nao1215/scrapesynth/internal/synth"
)

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [url...]",
		Short: "Scrape pages and answer an instruction over their content",
		Long: `Ask fetches every URL concurrently, strips navigation, scripts and other
noise, and sends the extracted text and images to a generative model together
with your instruction. With more than one URL the model is asked to compare
the sources.

If the reply contains a chart block it is printed after the leading text.
Pages that cannot be fetched are reported but do not stop the run; it fails
only when no page could be retrieved.

Examples:
  # Summarize a page
  scrapesynth ask -p "Summarize this article" https://example.com/post

  # Compare two pages and write a Markdown report
  scrapesynth ask -p "Compare their pricing" -m -o report.md https://a.example https://b.example

  # Read the 2015 Wayback Machine snapshot instead of the live page
  scrapesynth ask --time-travel --year 2015 -p "What did the homepage offer?" https://example.com

  # Let the model narrate the page as a text adventure
  scrapesynth ask --game -p "Start the adventure" https://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runAskCmd,
	}

	cmd.Flags().StringP("prompt", "p", "", "Instruction for the model")
	cmd.Flags().BoolP("game", "g", false, "Role-play narrator mode")
	cmd.Flags().Bool("time-travel", false, "Read Wayback Machine snapshots instead of live pages")
	cmd.Flags().IntP("year", "y", config.DefaultTargetYear, "Snapshot year for --time-travel")
	cmd.Flags().Bool("details", false, "Include model attempts and all sources in the text report")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file (created with 0600 permissions)")
	addSynthFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runAskCmd executes the ask command.
func runAskCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAskConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	ctx, cancel := signalContext()
	defer cancel()

	details, err := cmd.Flags().GetBool("details")
	if err != nil {
		return err
	}
	return runAsk(ctx, cmd, cfg, logger, details)
}

// buildAskConfig creates a Config from the config file and ask flags.
func buildAskConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := applySynthFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.Instruction, err = flags.GetString("prompt"); err != nil {
		return nil, err
	}
	if cfg.GameMode, err = flags.GetBool("game"); err != nil {
		return nil, err
	}
	if cfg.TimeTravel, err = flags.GetBool("time-travel"); err != nil {
		return nil, err
	}
	if cfg.TargetYear, err = flags.GetInt("year"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Sources = args
	return cfg, nil
}

// runAsk runs one synthesis and writes its report.
func runAsk(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, details bool) error {
	stopTor, err := startTor(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTor()

	opts := []synth.Option{synth.WithLogger(logger)}

	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, synth.WithHistory(db))
	}

	svc, err := synth.NewService(cfg, opts...)
	if err != nil {
		return err
	}

	res, err := svc.Run(ctx, synth.Request{
		Sources:     cfg.Sources,
		Instruction: cfg.Instruction,
		Credential:  cfg.APIKey,
		Modes: model.ModeFlags{
			GameMode:   cfg.GameMode,
			TimeTravel: cfg.TimeTravel,
			TargetYear: cfg.TargetYear,
		},
	})
	if err != nil {
		return err
	}

	w, closeOutput, err := reportWriter(cmd, cfg, report.WithVerbose(details))
	if err != nil {
		return err
	}
	if _, err := w.Write(report.FromResult(res)); err != nil {
		_ = closeOutput()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeOutput(); err != nil {
		return err
	}

	if cfg.ReportFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", cfg.ReportFile)
	}
	return nil
}
