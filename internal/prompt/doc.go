// Package prompt composes the single instruction document sent to a model.
//
// Compose is pure: the same records, instruction and mode flags always give
// the same document. The document embeds, in order, the persona, the time
// travel and comparison disclosures, the user's request, the output rules,
// the chart block instruction and the records as indented JSON.
package prompt
