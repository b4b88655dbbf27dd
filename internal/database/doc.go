// Package database stores the history of synthesis runs in SQLite.
//
// Each run records its sources, instruction, modes, the provider and model
// that answered, every model attempt, the per-source outcomes, and either the
// reply text or the terminal error. The composed prompt itself is not kept;
// a SHA3-256 digest identifies it instead.
//
// The driver is modernc.org/sqlite, which needs no cgo. The database is a
// single file in the XDG data directory.
package database
