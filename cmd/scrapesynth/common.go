package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/scrapesynth/internal/config"
	"github.com/nao1215/scrapesynth/internal/database"
	"github.com/nao1215/scrapesynth/internal/log"
	"github.com/nao1215/scrapesynth/internal/report"
	"github.com/nao1215/scrapesynth/internal/transport"
)

// persistentBool reads a root persistent flag. Subcommands built on their
// own in tests have no parent, so a missing flag reads as false.
func persistentBool(cmd *cobra.Command, name string) bool {
	if v, err := cmd.Flags().GetBool(name); err == nil {
		return v
	}
	v, err := cmd.Root().PersistentFlags().GetBool(name)
	if err != nil {
		return false
	}
	return v
}

// persistentString is persistentBool for string flags.
func persistentString(cmd *cobra.Command, name string) string {
	if v, err := cmd.Flags().GetString(name); err == nil {
		return v
	}
	v, err := cmd.Root().PersistentFlags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// setupLogger creates the credential-scrubbing logger and makes it the default.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	cfg.Verbose = persistentBool(cmd, "verbose")
	cfg.LogJSON = persistentBool(cmd, "log-json")

	logger := log.New(os.Stderr, log.Options{Verbose: cfg.Verbose, JSON: cfg.LogJSON})
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig starts from defaults and applies the configuration file.
// An explicit --config path that does not exist is an error; a missing
// default file is not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = persistentString(cmd, "config")

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}
	return cfg, nil
}

// addSynthFlags registers the flags shared by ask and serve.
func addSynthFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("api-key", "k", "",
		"Provider API key (default: GEMINI_API_KEY, then OPENAI_API_KEY)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each page fetch")
	cmd.Flags().Duration("lookup-timeout", config.DefaultLookupTimeout,
		"Timeout for each Wayback Machine lookup")
	cmd.Flags().Duration("model-timeout", config.DefaultModelTimeout,
		"Timeout for each model call")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of pages fetched at once")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().Bool("tor", false,
		"Route requests through an embedded Tor daemon")
	cmd.Flags().StringSlice("models", nil,
		"Gemini models to try in order (default: built-in cascade)")
	cmd.Flags().String("fallback-model", config.DefaultFallbackModel,
		"OpenAI model used for non-Gemini keys")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record runs in the history database")
}

// applySynthFlags copies explicitly set flags over cfg.
func applySynthFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if cfg.APIKey, err = flags.GetString("api-key"); err != nil {
		return err
	}
	if flags.Changed("timeout") {
		if cfg.FetchTimeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("lookup-timeout") {
		if cfg.LookupTimeout, err = flags.GetDuration("lookup-timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("model-timeout") {
		if cfg.ModelTimeout, err = flags.GetDuration("model-timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("tor") {
		if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
			return err
		}
	}
	if flags.Changed("models") {
		if cfg.PrimaryModels, err = flags.GetStringSlice("models"); err != nil {
			return err
		}
	}
	if flags.Changed("fallback-model") {
		if cfg.FallbackModel, err = flags.GetString("fallback-model"); err != nil {
			return err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noHistory
	return nil
}

// addReportFlags registers the output format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown")
	cmd.Flags().BoolP("render", "r", false, "Render Markdown in the terminal")
}

// applyReportFlags reads the output format flags into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.RenderReport, err = cmd.Flags().GetBool("render"); err != nil {
		return err
	}
	return nil
}

// reportFormat maps the report flags to a report.Format.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	case cfg.RenderReport:
		return report.FormatTerminal
	default:
		return report.FormatText
	}
}

// reportWriter returns the writer for cfg and a function that closes the
// output file, if any.
func reportWriter(cmd *cobra.Command, cfg *config.Config, opts ...report.SimpleWriterOption) (report.Writer, func() error, error) {
	var out io.Writer = cmd.OutOrStdout()
	closeFn := func() error { return nil }
	if cfg.ReportFile != "" {
		f, err := report.CreateFile(cfg.ReportFile)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = f.Close
	}

	format := reportFormat(cfg)
	if format == report.FormatText {
		return report.NewSimpleWriter(out, opts...), closeFn, nil
	}
	w, err := report.NewWriter(format, out)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return w, closeFn, nil
}

// openHistory opens the history database when cfg enables it.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// startTor launches the embedded Tor daemon when cfg asks for it and points
// cfg.ProxyAddress at its SOCKS port. The returned function stops the daemon.
func startTor(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (func(), error) {
	if !cfg.UseTor {
		return func() {}, nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting embedded Tor daemon (this can take a few minutes)...")
	tor := transport.NewEmbeddedTor()
	if err := tor.Start(ctx); err != nil {
		return nil, err
	}
	addr, err := tor.ProxyAddress()
	if err != nil {
		_ = tor.Stop() //nolint:errcheck // best effort
		return nil, err
	}
	cfg.ProxyAddress = addr
	logger.Info("embedded Tor daemon ready", "socks", addr)

	return func() {
		if err := tor.Stop(); err != nil {
			logger.Warn("failed to stop embedded Tor daemon", "error", err)
		}
	}, nil
}
