package chart

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		wantLeading string
		wantPayload any
		wantTrail   string
	}{
		{
			name:        "well formed block",
			raw:         "A" + StartSentinel + `{"type":"bar","title":"T","data":[]}` + EndSentinel + "B",
			wantLeading: "A",
			wantPayload: map[string]any{"type": "bar", "title": "T", "data": []any{}},
			wantTrail:   "B",
		},
		{
			name:        "no sentinels",
			raw:         "just text",
			wantLeading: "just text",
		},
		{
			name:        "unmatched start",
			raw:         "A" + StartSentinel + `{"type":"bar"}`,
			wantLeading: "A" + StartSentinel + `{"type":"bar"}`,
		},
		{
			name:        "end before start",
			raw:         "A" + EndSentinel + "B" + StartSentinel + "C",
			wantLeading: "A" + EndSentinel + "B" + StartSentinel + "C",
		},
		{
			name:        "malformed json keeps text",
			raw:         "A" + StartSentinel + `{"type": "bar", // or "pie"}` + EndSentinel + "B",
			wantLeading: "A",
			wantTrail:   "B",
		},
		{
			name:        "whitespace around json",
			raw:         "A\n" + StartSentinel + "\n  [1, 2]\n" + EndSentinel + "\nB",
			wantLeading: "A\n",
			wantPayload: []any{1.0, 2.0},
			wantTrail:   "\nB",
		},
		{
			name:        "first block wins",
			raw:         StartSentinel + "1" + EndSentinel + "mid" + StartSentinel + "2" + EndSentinel,
			wantLeading: "",
			wantPayload: 1.0,
			wantTrail:   "mid" + StartSentinel + "2" + EndSentinel,
		},
		{
			name:        "empty span",
			raw:         "A" + StartSentinel + EndSentinel + "B",
			wantLeading: "A",
			wantTrail:   "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Split(tt.raw)
			if got.LeadingText != tt.wantLeading {
				t.Errorf("leading: expected %q, got %q", tt.wantLeading, got.LeadingText)
			}
			if got.TrailingText != tt.wantTrail {
				t.Errorf("trailing: expected %q, got %q", tt.wantTrail, got.TrailingText)
			}
			if !reflect.DeepEqual(got.StructuredPayload, tt.wantPayload) {
				t.Errorf("payload: expected %#v, got %#v", tt.wantPayload, got.StructuredPayload)
			}
			if got.HasPayload() != (tt.wantPayload != nil) {
				t.Errorf("HasPayload: expected %v", tt.wantPayload != nil)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid pie", func(t *testing.T) {
		t.Parallel()
		payload := map[string]any{
			"type":  "pie",
			"title": "Share",
			"data":  []any{map[string]any{"name": "a", "value": 2.5}},
		}
		c, err := Decode(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Type != KindPie || c.Title != "Share" || len(c.Data) != 1 || c.Data[0].Value != 2.5 {
			t.Errorf("unexpected chart %+v", c)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		_, err := Decode(map[string]any{"type": "scatter"})
		if !errors.Is(err, ErrInvalidChart) {
			t.Errorf("expected ErrInvalidChart, got %v", err)
		}
	})

	t.Run("wrong shape", func(t *testing.T) {
		t.Parallel()
		_, err := Decode([]any{1.0})
		if !errors.Is(err, ErrInvalidChart) {
			t.Errorf("expected ErrInvalidChart, got %v", err)
		}
	})

	t.Run("nil payload", func(t *testing.T) {
		t.Parallel()
		if _, err := Decode(nil); !errors.Is(err, ErrInvalidChart) {
			t.Errorf("expected ErrInvalidChart, got %v", err)
		}
	})
}
