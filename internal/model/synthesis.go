package model

import "time"

// DefaultTargetYear is the snapshot year used when time travel is requested
// without a year.
const DefaultTargetYear = 2020

// ModeFlags are the operating modes requested by the caller.
// Role play and time travel are normally exclusive, but nothing here
// enforces that.
type ModeFlags struct {
	// GameMode selects the role-play narrator persona.
	GameMode bool `json:"gameMode"`

	// TimeTravel resolves every source through the archive service.
	TimeTravel bool `json:"timeTravel"`

	// TargetYear is the year used when TimeTravel is set.
	TargetYear int `json:"timeTravelYear,omitempty"`
}

// Year returns TargetYear, or DefaultTargetYear when it is unset.
func (m ModeFlags) Year() int {
	if m.TargetYear <= 0 {
		return DefaultTargetYear
	}
	return m.TargetYear
}

// SynthesisRequest is the composed prompt plus the credential used to send it.
type SynthesisRequest struct {
	InstructionDocument string
	ProviderCredential  string
}

// ModelAttempt records one call to one model.
type ModelAttempt struct {
	// Model is the model identifier that was called.
	Model string `json:"model"`

	// OK reports whether the model returned non-empty text.
	OK bool `json:"ok"`

	// Text is the generated text for a successful attempt.
	Text string `json:"-"`

	// Reason is the failure message for an unsuccessful attempt.
	Reason string `json:"reason,omitempty"`

	// Elapsed is how long the attempt took.
	Elapsed time.Duration `json:"elapsed"`
}

// SynthesisResult is the model reply split around the embedded chart block.
type SynthesisResult struct {
	// LeadingText is the text before the chart block, or the whole reply.
	LeadingText string `json:"leadingText"`

	// StructuredPayload is the parsed chart JSON, nil when absent or malformed.
	StructuredPayload any `json:"chart,omitempty"`

	// TrailingText is the text after the chart block.
	TrailingText string `json:"trailingText"`
}

// HasPayload reports whether a structured payload was parsed.
func (r SynthesisResult) HasPayload() bool {
	return r.StructuredPayload != nil
}
