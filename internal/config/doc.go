// Package config provides configuration structures and utilities for scrapesynth.
// It defines the network timeouts, extraction caps, model lists and report
// preferences, loads the optional YAML configuration file and resolves the
// provider credential from flags, the environment or a .env file.
package config
