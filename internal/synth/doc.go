// Package synth runs one synthesis request end to end.
//
// A request is validated first; a missing source, instruction or credential
// fails with ErrInput before any network activity. The sources are then
// fanned out through archive resolution and extraction, the successful
// records are composed into one instruction document, the provider chosen by
// the credential is invoked, and the reply is split around its chart block.
//
// Every run that gets past validation can be recorded in a HistoryStore.
package synth
