package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/scrapesynth/internal/model"
)

// DefaultConcurrency is used when WithConcurrency is not given.
const DefaultConcurrency = 8

// ErrTotalFailure is returned when no source in a batch could be retrieved.
var ErrTotalFailure = errors.New("no sources could be retrieved")

// TotalFailureError lists the per-source failures of a batch without any
// success.
type TotalFailureError struct {
	Outcomes []model.SourceOutcome
}

// Error implements the error interface.
func (e *TotalFailureError) Error() string {
	reasons := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		reasons = append(reasons, o.Reason)
	}
	if len(reasons) == 0 {
		return ErrTotalFailure.Error()
	}
	return ErrTotalFailure.Error() + ": " + strings.Join(reasons, "; ")
}

// Unwrap lets errors.Is match ErrTotalFailure.
func (e *TotalFailureError) Unwrap() error {
	return ErrTotalFailure
}

// BatchProcessor processes the sources of one batch concurrently.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each source.
	pipelineFactory func() *Pipeline
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sources processed at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. pipelineFactory is called once
// per source.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs every request and returns one outcome per request,
// indexed by position. It returns only after all tasks have finished.
//
// The errgroup is created without a derived context and tasks never return
// an error to it, so one failure cannot cancel its siblings.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, requests []model.SourceRequest) []model.SourceOutcome {
	bp.logger.Info("starting batch",
		"sources", len(requests),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	outcomes := make([]model.SourceOutcome, len(requests))

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, req := range requests {
		g.Go(func() error {
			task := NewTask(req)
			if err := bp.pipelineFactory().Execute(ctx, task); err != nil {
				outcomes[i] = model.Failure(req.Position, req.Identifier, err)
				return nil
			}
			outcomes[i] = model.Success(req.Position, req.Identifier, task.Record)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors

	bp.logger.Info("batch complete",
		"sources", len(requests),
		"elapsed", time.Since(start),
	)
	return outcomes
}

// Aggregate keeps the successful records ordered by position. It returns a
// *TotalFailureError when there are none.
func Aggregate(outcomes []model.SourceOutcome) (model.AggregatedContext, error) {
	ordered := slices.Clone(outcomes)
	slices.SortStableFunc(ordered, func(a, b model.SourceOutcome) int {
		return cmp.Compare(a.Position, b.Position)
	})

	agg := make(model.AggregatedContext, 0, len(ordered))
	for _, o := range ordered {
		if o.OK && o.Record != nil {
			agg = append(agg, *o.Record)
		}
	}
	if len(agg) == 0 {
		return nil, &TotalFailureError{Outcomes: ordered}
	}
	return agg, nil
}

// Process runs the batch and aggregates it. Outcomes are returned even when
// the batch failed so callers can report per-source reasons.
func (bp *BatchProcessor) Process(ctx context.Context, requests []model.SourceRequest) (model.AggregatedContext, []model.SourceOutcome, error) {
	outcomes := bp.ProcessBatch(ctx, requests)
	agg, err := Aggregate(outcomes)
	if err != nil {
		bp.logger.Warn("batch failed", "error", err)
		return nil, outcomes, fmt.Errorf("fan-out: %w", err)
	}
	return agg, outcomes, nil
}
