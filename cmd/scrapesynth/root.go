package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/scrapesynth/internal/config"
)

// NewRootCmd creates the root command for scrapesynth.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrapesynth",
		Short: "Scrape web pages and synthesize an answer with a generative model",
		Long: `scrapesynth retrieves web pages, extracts their text and images, and asks a
generative model to answer an instruction over the combined content.

Pages can be read live or, with --time-travel, from their Wayback Machine
snapshot closest to a given year. Gemini API keys (AIza...) use a cascade of
Gemini models; any other key is sent to OpenAI.

A .env file in the working directory is loaded at startup, so GEMINI_API_KEY
or OPENAI_API_KEY can be kept there.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return fmt.Errorf("failed to load %s: %w", config.DefaultEnvFile, err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .scrapesynth in current or home directory)")

	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewModelsCmd())
	cmd.AddCommand(NewInitCmd())
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
