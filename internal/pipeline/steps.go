package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/scrapesynth/internal/model"
)

// ErrNotResolved is returned by ExtractStep when no resolution step ran.
var ErrNotResolved = errors.New("source address was not resolved")

// Resolver maps an address to a snapshot for a target year.
// *archive.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, address string, year int) (model.ResolvedAddress, error)
}

// Extractor turns a resolved address into a record.
// *extract.Extractor implements it.
type Extractor interface {
	Extract(ctx context.Context, resolved model.ResolvedAddress) (*model.ExtractedRecord, error)
}

// ResolveStep fills Task.Resolved. Without time travel it is the identity
// and makes no network call.
type ResolveStep struct {
	resolver   Resolver
	timeTravel bool
	year       int
}

// NewResolveStep creates a ResolveStep. resolver may be nil when
// timeTravel is false.
func NewResolveStep(resolver Resolver, timeTravel bool, year int) *ResolveStep {
	return &ResolveStep{resolver: resolver, timeTravel: timeTravel, year: year}
}

// Name implements Step.
func (s *ResolveStep) Name() string {
	return "resolve"
}

// Do implements Step.
func (s *ResolveStep) Do(ctx context.Context, task *Task) error {
	addr := task.Request.Identifier
	if !s.timeTravel || s.resolver == nil {
		task.Resolved = model.IdentityAddress(addr)
		return nil
	}
	resolved, err := s.resolver.Resolve(ctx, addr, s.year)
	if err != nil {
		return err
	}
	task.Resolved = resolved
	return nil
}

// ExtractStep fills Task.Record from Task.Resolved.
type ExtractStep struct {
	extractor Extractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name implements Step.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do implements Step.
func (s *ExtractStep) Do(ctx context.Context, task *Task) error {
	if task.Resolved.EffectiveAddress == "" {
		return ErrNotResolved
	}
	record, err := s.extractor.Extract(ctx, task.Resolved)
	if err != nil {
		return err
	}
	record.Position = task.Request.Position
	record.SourceID = task.Request.Position + 1
	task.Record = record
	return nil
}

// SourcePipeline returns the standard resolve-then-extract pipeline.
func SourcePipeline(resolver Resolver, extractor Extractor, modes model.ModeFlags, logger *slog.Logger) *Pipeline {
	p := New(WithLogger(logger))
	p.AddSteps(
		NewResolveStep(resolver, modes.TimeTravel, modes.Year()),
		NewExtractStep(extractor),
	)
	return p
}
