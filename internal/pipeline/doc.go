// Package pipeline runs the per-source stages of a batch.
//
// Each source goes through a Pipeline of Steps (archive resolution, then
// content extraction) operating on its own Task. BatchProcessor fans the
// tasks out with a concurrency limit, waits for every one of them, and
// reassembles the successful records in request order.
//
// Sources are independent: one failing or slow source never cancels the
// others. A batch fails only when no source succeeds (ErrTotalFailure).
package pipeline
