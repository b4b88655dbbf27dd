// Package model defines the data types that flow through the scrapesynth
// pipeline.
//
// Data moves strictly in one direction:
//
//	SourceRequest -> ResolvedAddress -> ExtractedRecord (inside a SourceOutcome)
//	  -> AggregatedContext -> SynthesisRequest -> ModelAttempt -> SynthesisResult
//
// Each value is produced by exactly one component and read by the next one.
// ExtractedRecord values are never modified after the extractor returns them.
package model
