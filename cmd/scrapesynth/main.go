// Package main provides the entry point for the scrapesynth CLI.
//
// scrapesynth retrieves one or more web pages, optionally from their
// Wayback Machine snapshot for a given year, and asks a generative model to
// answer an instruction over the extracted content.
//
// Usage:
//
//	scrapesynth ask -p "<instruction>" <url>...
//	scrapesynth serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
