// Package archive resolves source addresses to historical snapshots using the
// Wayback Machine availability API.
//
// A Resolver asks the service for the capture closest to January 1st of the
// target year. When time travel is off, callers use model.IdentityAddress
// instead and never touch the network.
package archive
