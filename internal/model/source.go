package model

import "fmt"

// SourceRequest is one caller-supplied address together with its position in
// the original request. Identifiers do not need to be unique; duplicates are
// processed independently.
type SourceRequest struct {
	// Identifier is the address to retrieve (normally an http(s) URL).
	Identifier string `json:"identifier"`

	// Position is the zero-based index of the source in the caller's request.
	Position int `json:"position"`
}

// NewSourceRequests turns a list of addresses into position-tagged requests.
func NewSourceRequests(addresses []string) []SourceRequest {
	requests := make([]SourceRequest, len(addresses))
	for i, addr := range addresses {
		requests[i] = SourceRequest{Identifier: addr, Position: i}
	}
	return requests
}

// ResolvedAddress is the result of archive resolution for one source.
type ResolvedAddress struct {
	// EffectiveAddress is the address that will actually be fetched.
	EffectiveAddress string `json:"effectiveAddress"`

	// IsArchived reports whether EffectiveAddress is a historical snapshot.
	IsArchived bool `json:"isArchived"`

	// OriginalAddress is the address the caller asked for.
	OriginalAddress string `json:"originalAddress"`

	// Year is the target year used for the lookup. Zero when not archived.
	Year int `json:"year,omitempty"`
}

// IdentityAddress returns the resolution used when time travel is off.
func IdentityAddress(address string) ResolvedAddress {
	return ResolvedAddress{
		EffectiveAddress: address,
		OriginalAddress:  address,
	}
}

// Image is an image element found in a document.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// ExtractedRecord is the normalized content of one retrieved source.
// The JSON field names are the ones embedded into the model prompt.
type ExtractedRecord struct {
	// Position is the source's index in the original request.
	Position int `json:"-"`

	// SourceID is the 1-based source number shown to the model.
	SourceID int `json:"source_id"`

	// OriginalAddress is the address the caller asked for.
	OriginalAddress string `json:"url"`

	// ArchivedAddress is the snapshot address when the record came from an archive.
	ArchivedAddress string `json:"archived_url,omitempty"`

	// Title is the document title, prefixed with the archival marker for snapshots.
	Title string `json:"title"`

	// Body is the cleaned body text, capped at the extractor's character limit.
	Body string `json:"content"`

	// Images holds at most the extractor's image cap, in document order.
	Images []Image `json:"images"`
}

// IsArchived reports whether the record was extracted from an archived snapshot.
func (r ExtractedRecord) IsArchived() bool {
	return r.ArchivedAddress != ""
}

// ArchivalTitle returns title prefixed with the archival marker for year.
func ArchivalTitle(year int, title string) string {
	return fmt.Sprintf("[ARCHIVED %d] %s", year, title)
}

// SourceOutcome is the result of processing a single SourceRequest.
// Exactly one of Record and Reason is meaningful, selected by OK.
type SourceOutcome struct {
	// Position ties the outcome back to its SourceRequest.
	Position int `json:"position"`

	// Address is the originally requested address.
	Address string `json:"address"`

	// OK reports whether Record holds a successful extraction.
	OK bool `json:"ok"`

	// Record is set when OK is true.
	Record *ExtractedRecord `json:"record,omitempty"`

	// Reason is the failure message when OK is false.
	Reason string `json:"reason,omitempty"`

	// Err is the underlying failure, kept for errors.Is checks.
	Err error `json:"-"`
}

// Success returns a successful outcome for record.
func Success(position int, address string, record *ExtractedRecord) SourceOutcome {
	return SourceOutcome{
		Position: position,
		Address:  address,
		OK:       true,
		Record:   record,
	}
}

// Failure returns a failed outcome carrying err's message.
func Failure(position int, address string, err error) SourceOutcome {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return SourceOutcome{
		Position: position,
		Address:  address,
		Reason:   reason,
		Err:      err,
	}
}

// AggregatedContext is the ordered list of successful records from one batch.
// It is never empty: a batch without successes stops before this stage.
type AggregatedContext []ExtractedRecord

// Len returns the number of sources in the context.
func (c AggregatedContext) Len() int {
	return len(c)
}

// IsComparison reports whether more than one source is present.
func (c AggregatedContext) IsComparison() bool {
	return len(c) > 1
}
