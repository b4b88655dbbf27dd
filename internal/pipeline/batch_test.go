package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/scrapesynth/internal/model"
)

// fakeExtractor fails addresses starting with "bad" and sleeps for
// addresses starting with "slow".
type fakeExtractor struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, resolved model.ResolvedAddress) (*model.ExtractedRecord, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	addr := resolved.EffectiveAddress
	if strings.HasPrefix(addr, "slow") {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if strings.HasPrefix(addr, "bad") {
		return nil, errors.New("Failed to fetch " + addr)
	}
	return &model.ExtractedRecord{OriginalAddress: resolved.OriginalAddress, Title: "title of " + addr}, nil
}

func newTestProcessor(ex Extractor, opts ...BatchOption) *BatchProcessor {
	return NewBatchProcessor(func() *Pipeline {
		return SourcePipeline(nil, ex, model.ModeFlags{}, nil)
	}, opts...)
}

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("default concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() })
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithBatchLogger(nil))
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

func TestBatchProcessorProcess(t *testing.T) {
	t.Parallel()

	t.Run("order follows position not completion", func(t *testing.T) {
		t.Parallel()

		reqs := model.NewSourceRequests([]string{"slow-1", "fast-2", "slow-3", "fast-4"})
		agg, outcomes, err := newTestProcessor(&fakeExtractor{}).Process(context.Background(), reqs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(outcomes) != 4 || agg.Len() != 4 {
			t.Fatalf("expected 4 outcomes and records, got %d and %d", len(outcomes), agg.Len())
		}
		for i, rec := range agg {
			if rec.Position != i || rec.SourceID != i+1 {
				t.Errorf("record %d has position %d source_id %d", i, rec.Position, rec.SourceID)
			}
			if rec.OriginalAddress != reqs[i].Identifier {
				t.Errorf("record %d is %q, want %q", i, rec.OriginalAddress, reqs[i].Identifier)
			}
		}
	})

	t.Run("failures do not affect siblings", func(t *testing.T) {
		t.Parallel()

		reqs := model.NewSourceRequests([]string{"bad-1", "ok-2", "bad-3", "slow-4"})
		agg, outcomes, err := newTestProcessor(&fakeExtractor{}).Process(context.Background(), reqs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if agg.Len() != 2 {
			t.Fatalf("expected 2 records, got %d", agg.Len())
		}
		if agg[0].OriginalAddress != "ok-2" || agg[1].OriginalAddress != "slow-4" {
			t.Errorf("unexpected records %+v", agg)
		}
		if agg[0].SourceID != 2 || agg[1].SourceID != 4 {
			t.Errorf("source ids should follow request order, got %d and %d", agg[0].SourceID, agg[1].SourceID)
		}
		if outcomes[0].OK || !strings.Contains(outcomes[0].Reason, "bad-1") {
			t.Errorf("expected failure naming bad-1, got %+v", outcomes[0])
		}
	})

	t.Run("duplicates are processed independently", func(t *testing.T) {
		t.Parallel()

		reqs := model.NewSourceRequests([]string{"same", "same"})
		agg, _, err := newTestProcessor(&fakeExtractor{}).Process(context.Background(), reqs)
		if err != nil {
			t.Fatal(err)
		}
		if agg.Len() != 2 || agg[0].SourceID != 1 || agg[1].SourceID != 2 {
			t.Errorf("expected two independent records, got %+v", agg)
		}
	})

	t.Run("all failures is total failure", func(t *testing.T) {
		t.Parallel()

		reqs := model.NewSourceRequests([]string{"bad-1", "bad-2"})
		agg, outcomes, err := newTestProcessor(&fakeExtractor{}).Process(context.Background(), reqs)
		if !errors.Is(err, ErrTotalFailure) {
			t.Fatalf("expected ErrTotalFailure, got %v", err)
		}
		if agg != nil {
			t.Errorf("expected nil context, got %+v", agg)
		}
		if len(outcomes) != 2 {
			t.Errorf("expected outcomes to be returned, got %d", len(outcomes))
		}
		var tfe *TotalFailureError
		if !errors.As(err, &tfe) || len(tfe.Outcomes) != 2 {
			t.Errorf("expected TotalFailureError with 2 outcomes, got %v", err)
		}
		if !strings.Contains(err.Error(), "bad-2") {
			t.Errorf("expected reasons in message, got %q", err.Error())
		}
	})

	t.Run("concurrency limit is respected", func(t *testing.T) {
		t.Parallel()

		ex := &fakeExtractor{}
		addrs := make([]string, 10)
		for i := range addrs {
			addrs[i] = "slow"
		}
		_, _, err := newTestProcessor(ex, WithConcurrency(2)).Process(context.Background(), model.NewSourceRequests(addrs))
		if err != nil {
			t.Fatal(err)
		}
		if peak := ex.peak.Load(); peak > 2 {
			t.Errorf("expected at most 2 concurrent extractions, saw %d", peak)
		}
	})

	t.Run("empty batch is total failure", func(t *testing.T) {
		t.Parallel()

		_, _, err := newTestProcessor(&fakeExtractor{}).Process(context.Background(), nil)
		if !errors.Is(err, ErrTotalFailure) {
			t.Errorf("expected ErrTotalFailure, got %v", err)
		}
	})
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	outcomes := []model.SourceOutcome{
		model.Success(2, "c", &model.ExtractedRecord{Position: 2}),
		model.Failure(1, "b", errors.New("x")),
		model.Success(0, "a", &model.ExtractedRecord{Position: 0}),
	}
	agg, err := Aggregate(outcomes)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Len() != 2 || agg[0].Position != 0 || agg[1].Position != 2 {
		t.Errorf("unexpected aggregation %+v", agg)
	}
	if outcomes[0].Position != 2 {
		t.Error("Aggregate must not reorder its input")
	}
}
