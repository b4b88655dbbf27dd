package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/scrapesynth/internal/config"
	"github.com/nao1215/scrapesynth/internal/llm"
	"github.com/nao1215/scrapesynth/internal/transport"
)

// errGeminiKeyRequired is returned when the credential is not a Gemini key.
var errGeminiKeyRequired = errors.New("model listing requires a Gemini API key (AIza...)")

// NewModelsCmd creates the models command.
func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List Gemini models or probe the configured cascade",
		Long: `Models lists the Gemini models available to your key that support content
generation. With --probe it instead sends a short prompt to every model of
the configured cascade, one at a time, and reports which ones answer.

Examples:
  scrapesynth models
  scrapesynth models --probe
  scrapesynth models --probe --models gemini-2.5-flash,gemini-2.0-flash-exp`,
		Args: cobra.NoArgs,
		RunE: runModelsCmd,
	}

	cmd.Flags().StringP("api-key", "k", "", "Gemini API key (default: GEMINI_API_KEY)")
	cmd.Flags().Bool("probe", false, "Probe each model of the cascade")
	cmd.Flags().StringSlice("models", nil, "Models to probe (default: configured cascade)")
	cmd.Flags().Bool("tor", false, "Route requests through an embedded Tor daemon")
	cmd.Flags().Duration("model-timeout", config.DefaultModelTimeout, "Timeout for each model call")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")

	return cmd
}

// runModelsCmd executes the models command.
func runModelsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if cfg.APIKey, err = flags.GetString("api-key"); err != nil {
		return err
	}
	if flags.Changed("models") {
		if cfg.PrimaryModels, err = flags.GetStringSlice("models"); err != nil {
			return err
		}
	}
	if flags.Changed("tor") {
		if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
			return err
		}
	}
	if flags.Changed("model-timeout") {
		if cfg.ModelTimeout, err = flags.GetDuration("model-timeout"); err != nil {
			return err
		}
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	probe, err := flags.GetBool("probe")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	key := config.ResolveCredential(cfg.APIKey)
	if llm.SelectProvider(key) != llm.KindPrimary {
		return errGeminiKeyRequired
	}

	ctx, cancel := signalContext()
	defer cancel()

	stopTor, err := startTor(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTor()

	client, err := transport.NewClient(transport.Options{ProxyAddress: cfg.ProxyAddress})
	if err != nil {
		return err
	}
	gen, err := llm.NewGeminiGenerator(ctx, key, llm.GeminiOptions{
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: client,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if probe {
		attempts := llm.Probe(ctx, gen, cfg.PrimaryModels,
			llm.WithAttemptTimeout(cfg.ModelTimeout),
			llm.WithLogger(logger),
		)
		if cfg.JSONReport {
			return writeJSON(out, attempts)
		}
		for _, a := range attempts {
			if a.OK {
				fmt.Fprintf(out, "[+] %-32s ok (%s)\n", a.Model, a.Elapsed.Round(time.Millisecond))
				continue
			}
			fmt.Fprintf(out, "[-] %-32s %s\n", a.Model, a.Reason)
		}
		return nil
	}

	return listModels(ctx, out, gen, cfg.JSONReport)
}

// modelLister is implemented by *llm.GeminiGenerator.
type modelLister interface {
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

func listModels(ctx context.Context, out io.Writer, lister modelLister, asJSON bool) error {
	models, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if asJSON {
		return writeJSON(out, models)
	}
	if len(models) == 0 {
		fmt.Fprintln(out, "No models support content generation for this key.")
		return nil
	}
	for _, m := range models {
		if m.DisplayName != "" {
			fmt.Fprintf(out, "%-40s %s\n", m.Name, m.DisplayName)
			continue
		}
		fmt.Fprintln(out, m.Name)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
