package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/scrapesynth/internal/config"
	"github.com/nao1215/scrapesynth/internal/server"
	"github.com/nao1215/scrapesynth/internal/synth"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the synthesis API over HTTP",
		Long: `Serve starts an HTTP server exposing POST /api/scrape.

Request body:
  {"url": "...", "urls": ["..."], "prompt": "...", "apiKey": "...",
   "gameMode": false, "timeTravel": false, "timeTravelYear": 2020}

"urls" wins over "url" when both are set. When "apiKey" is empty the server's
environment key is used. Input errors return 400, pipeline and model failures
return 500, both as {"error": "..."}.

Stored runs are available at GET /api/runs and GET /api/runs/{id} unless
--no-history is set.

Examples:
  scrapesynth serve
  scrapesynth serve -l 0.0.0.0:9000 --no-history`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress, "Address to listen on")
	addSynthFlags(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySynthFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.ListenAddress, err = cmd.Flags().GetString("listen"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	ctx, cancel := signalContext()
	defer cancel()

	stopTor, err := startTor(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTor()

	svcOpts := []synth.Option{synth.WithLogger(logger)}
	srvOpts := []server.Option{server.WithLogger(logger)}

	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		svcOpts = append(svcOpts, synth.WithHistory(db))
		srvOpts = append(srvOpts, server.WithHistory(db))
	}

	svc, err := synth.NewService(cfg, svcOpts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s\n", cfg.ListenAddress)
	return server.New(svc, srvOpts...).ListenAndServe(ctx, cfg.ListenAddress)
}
