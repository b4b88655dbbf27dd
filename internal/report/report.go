package report

import (
	"time"

	"github.com/nao1215/scrapesynth/internal/chart"
	"github.com/nao1215/scrapesynth/internal/database"
	"github.com/nao1215/scrapesynth/internal/model"
	"github.com/nao1215/scrapesynth/internal/synth"
)

// Report is the printable view of one run.
type Report struct {
	RunID       string                `json:"runId"`
	CreatedAt   time.Time             `json:"createdAt"`
	Instruction string                `json:"instruction"`
	Provider    string                `json:"provider,omitempty"`
	Model       string                `json:"model,omitempty"`
	Modes       model.ModeFlags       `json:"modes"`
	Attempts    []model.ModelAttempt  `json:"attempts"`
	Sources     []model.SourceOutcome `json:"sources"`
	Result      model.SynthesisResult `json:"result"`

	// Error is the terminal failure of a stored run.
	Error string `json:"error,omitempty"`
}

// FromResult builds a Report from a completed synthesis.
func FromResult(res *synth.Result) *Report {
	return &Report{
		RunID:       res.RunID,
		CreatedAt:   res.CreatedAt,
		Instruction: res.Instruction,
		Provider:    res.Provider,
		Model:       res.Model,
		Modes:       res.Modes,
		Attempts:    res.Attempts,
		Sources:     res.Outcomes,
		Result:      res.Synthesis,
	}
}

// FromRun builds a Report from a stored run. Stored outcomes carry no
// records, so only addresses and failure reasons are shown for sources.
func FromRun(run *database.Run) *Report {
	r := &Report{
		RunID:       run.RunID,
		CreatedAt:   run.CreatedAt,
		Instruction: run.Instruction,
		Provider:    run.Provider,
		Model:       run.Model,
		Modes:       run.Modes,
		Attempts:    run.Attempts,
		Sources:     run.Outcomes,
		Error:       run.Error,
	}
	if run.OK {
		r.Result = chart.Split(run.Result)
	}
	return r
}

// Failed reports whether the run ended with an error.
func (r *Report) Failed() bool {
	return r.Error != ""
}

// sourceLabel returns the title of a successful source or its address.
func sourceLabel(o model.SourceOutcome) string {
	if o.Record != nil && o.Record.Title != "" {
		return o.Record.Title
	}
	return o.Address
}
