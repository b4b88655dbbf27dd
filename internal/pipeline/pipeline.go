package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/scrapesynth/internal/model"
)

// Task is the working state of one source while it moves through a Pipeline.
// A Task is owned by exactly one goroutine.
type Task struct {
	// Request is the source being processed.
	Request model.SourceRequest

	// Resolved is set by the resolution step.
	Resolved model.ResolvedAddress

	// Record is set by the extraction step.
	Record *model.ExtractedRecord
}

// NewTask creates a Task for req.
func NewTask(req model.SourceRequest) *Task {
	return &Task{Request: req}
}

// Step is one stage of per-source processing.
type Step interface {
	// Do runs the step. A non-nil error fails the source.
	Do(ctx context.Context, task *Task) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline runs Steps in order and stops at the first failure.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0, 2)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddSteps appends steps in execution order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against task. Cancellation is checked between
// steps; steps handle their own timeouts.
func (p *Pipeline) Execute(ctx context.Context, task *Task) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", task.Request.Identifier,
			"position", task.Request.Position,
		)

		if err := step.Do(ctx, task); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", task.Request.Identifier,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
