package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/scrapesynth/internal/archive"
	"github.com/nao1215/scrapesynth/internal/chart"
	"github.com/nao1215/scrapesynth/internal/config"
	"github.com/nao1215/scrapesynth/internal/database"
	"github.com/nao1215/scrapesynth/internal/extract"
	"github.com/nao1215/scrapesynth/internal/llm"
	"github.com/nao1215/scrapesynth/internal/model"
	"github.com/nao1215/scrapesynth/internal/pipeline"
	"github.com/nao1215/scrapesynth/internal/prompt"
	"github.com/nao1215/scrapesynth/internal/transport"
)

// Request is one synthesis request.
type Request struct {
	// Sources are the addresses to retrieve. Blank entries are ignored.
	Sources []string

	// Instruction is the caller's natural-language request.
	Instruction string

	// Credential is the provider key. Empty means the environment default.
	Credential string

	// Modes are the requested operating modes.
	Modes model.ModeFlags
}

// Result is a completed synthesis.
type Result struct {
	RunID       string
	CreatedAt   time.Time
	Instruction string
	Provider    string
	Model       string

	// Attempts lists every model call in order.
	Attempts []model.ModelAttempt

	// Outcomes holds one entry per source, ordered by position.
	Outcomes []model.SourceOutcome

	// Synthesis is the reply split around its chart block.
	Synthesis model.SynthesisResult

	// RawText is the unsplit model reply.
	RawText string

	// Modes are the modes actually used, with the default year filled in.
	Modes model.ModeFlags
}

// HistoryStore records runs.
type HistoryStore interface {
	SaveRun(ctx context.Context, run *database.Run) (int64, error)
}

// Service executes synthesis requests.
type Service struct {
	cfg       *config.Config
	resolver  pipeline.Resolver
	extractor pipeline.Extractor
	llmOpts   llm.Options
	history   HistoryStore
	logger    *slog.Logger
	newRunID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistory records every run in store.
func WithHistory(store HistoryStore) Option {
	return func(s *Service) {
		s.history = store
	}
}

// NewService creates a Service from cfg. The HTTP clients for document
// fetches, archive lookups and model calls are built here, each with its own
// timeout.
func NewService(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:      cfg,
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	fetchClient, err := transport.NewClient(transport.Options{
		Timeout:      cfg.FetchTimeout,
		ProxyAddress: cfg.ProxyAddress,
		Sites:        cfg.SiteConfigs,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch client: %w", err)
	}
	lookupClient, err := transport.NewClient(transport.Options{
		Timeout:      cfg.LookupTimeout,
		ProxyAddress: cfg.ProxyAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup client: %w", err)
	}
	modelClient, err := transport.NewClient(transport.Options{
		ProxyAddress: cfg.ProxyAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("model client: %w", err)
	}

	s.resolver = archive.NewResolver(lookupClient, cfg.WaybackEndpoint, archive.WithLogger(s.logger))
	s.extractor = extract.NewExtractor(fetchClient,
		extract.WithUserAgent(cfg.UserAgent),
		extract.WithMaxBodySize(cfg.MaxBodySize),
		extract.WithMaxBodyChars(cfg.MaxBodyChars),
		extract.WithMaxImages(cfg.MaxImages),
		extract.WithLogger(s.logger),
	)
	s.llmOpts = llm.Options{
		PrimaryModels:  cfg.PrimaryModels,
		FallbackModel:  cfg.FallbackModel,
		GeminiBaseURL:  cfg.GeminiBaseURL,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		HTTPClient:     modelClient,
		AttemptTimeout: cfg.ModelTimeout,
		Logger:         s.logger,
	}

	return s, nil
}

// validate normalizes req and resolves its credential. The instruction is
// passed through verbatim.
func validate(req Request) (Request, error) {
	sources := make([]string, 0, len(req.Sources))
	for _, src := range req.Sources {
		if src = strings.TrimSpace(src); src != "" {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		return req, ErrMissingSource
	}
	req.Sources = sources

	if strings.TrimSpace(req.Instruction) == "" {
		return req, ErrMissingInstruction
	}

	req.Credential = config.ResolveCredential(req.Credential)
	if req.Credential == "" {
		return req, ErrMissingCredential
	}

	if req.Modes.TimeTravel {
		req.Modes.TargetYear = req.Modes.Year()
	}
	return req, nil
}

// Run executes req. Input errors are returned before any network call;
// otherwise the run is recorded whether it succeeds or not.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	req, err := validate(req)
	if err != nil {
		return nil, err
	}

	runID := s.newRunID()
	logger := s.logger.With("run_id", runID)
	start := time.Now()
	logger.Info("synthesis started",
		"sources", len(req.Sources),
		"game_mode", req.Modes.GameMode,
		"time_travel", req.Modes.TimeTravel,
	)

	run := &database.Run{
		RunID:       runID,
		CreatedAt:   start,
		Instruction: req.Instruction,
		Sources:     req.Sources,
		Modes:       req.Modes,
	}

	modes := req.Modes
	batch := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.SourcePipeline(s.resolver, s.extractor, modes, logger)
		},
		pipeline.WithConcurrency(s.cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	agg, outcomes, err := batch.Process(ctx, model.NewSourceRequests(req.Sources))
	run.Outcomes = outcomes
	if err != nil {
		s.record(ctx, run, err)
		return nil, err
	}

	document := prompt.Compose(agg, req.Instruction, modes)
	run.PromptDigest = database.Digest(document)

	provider, err := llm.NewProvider(ctx, req.Credential, s.llmOpts)
	if err != nil {
		err = fmt.Errorf("synthesis: %w", err)
		s.record(ctx, run, err)
		return nil, err
	}
	run.Provider = provider.Kind().String()

	res, err := provider.Invoke(ctx, document)
	run.Attempts = res.Attempts
	if err != nil {
		err = fmt.Errorf("synthesis: %w", err)
		s.record(ctx, run, err)
		return nil, err
	}

	run.Model = res.Model
	run.OK = true
	run.Result = res.Text
	s.record(ctx, run, nil)

	logger.Info("synthesis finished",
		"provider", res.Provider,
		"model", res.Model,
		"attempts", len(res.Attempts),
		"duration", time.Since(start),
	)

	return &Result{
		RunID:       runID,
		CreatedAt:   start,
		Instruction: req.Instruction,
		Provider:    res.Provider.String(),
		Model:       res.Model,
		Attempts:    res.Attempts,
		Outcomes:    outcomes,
		Synthesis:   chart.Split(res.Text),
		RawText:     res.Text,
		Modes:       modes,
	}, nil
}

// record saves run. A storage failure is logged and does not fail the run.
func (s *Service) record(ctx context.Context, run *database.Run, runErr error) {
	if runErr != nil {
		run.Error = runErr.Error()
		s.logger.Warn("synthesis failed", "run_id", run.RunID, "error", runErr)
	}
	if s.history == nil {
		return
	}
	// The caller's context may already be cancelled; the record should still land.
	saveCtx := context.WithoutCancel(ctx)
	if _, err := s.history.SaveRun(saveCtx, run); err != nil {
		s.logger.Warn("failed to save run history", "run_id", run.RunID, "error", err)
	}
}

// IsInputError reports whether err is a request validation error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInput)
}
