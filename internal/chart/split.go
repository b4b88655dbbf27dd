package chart

import (
	"encoding/json"
	"strings"

	"github.com/nao1215/scrapesynth/internal/model"
)

// Sentinels delimiting the chart block.
const (
	StartSentinel = "!!!CHART_START!!!"
	EndSentinel   = "!!!CHART_END!!!"
)

// Split separates raw into leading text, payload and trailing text.
func Split(raw string) model.SynthesisResult {
	start := strings.Index(raw, StartSentinel)
	if start < 0 {
		return model.SynthesisResult{LeadingText: raw}
	}
	spanStart := start + len(StartSentinel)
	end := strings.Index(raw[spanStart:], EndSentinel)
	if end < 0 {
		return model.SynthesisResult{LeadingText: raw}
	}
	end += spanStart

	result := model.SynthesisResult{
		LeadingText:  raw[:start],
		TrailingText: raw[end+len(EndSentinel):],
	}

	var payload any
	if err := json.Unmarshal([]byte(raw[spanStart:end]), &payload); err == nil {
		result.StructuredPayload = payload
	}
	return result
}
