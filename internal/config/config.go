package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/scrapesynth/internal/model"
)

// Default configuration values.
const (
	// DefaultFetchTimeout bounds a single document fetch. The pipeline itself
	// defines no request-level timeout, so each outbound call gets its own.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultLookupTimeout bounds a single archive snapshot lookup.
	DefaultLookupTimeout = 15 * time.Second

	// DefaultModelTimeout bounds a single model generation request.
	// Generation over a 10k-character context per source can be slow.
	DefaultModelTimeout = 120 * time.Second

	// DefaultConcurrency is the maximum number of sources processed at once.
	DefaultConcurrency = 8

	// DefaultMaxBodySize limits how many bytes of a document are read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMaxBodyChars caps the extracted body text.
	DefaultMaxBodyChars = 10000

	// DefaultMaxImages caps the number of images kept per document.
	DefaultMaxImages = 10

	// DefaultTargetYear is used when time travel is requested without a year.
	DefaultTargetYear = model.DefaultTargetYear

	// MinTargetYear is the first year the Wayback Machine has captures for.
	MinTargetYear = 1996

	// DefaultUserAgent identifies as a desktop browser. Many servers reject
	// requests that do not look like they come from one.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultWaybackEndpoint is the snapshot availability API.
	DefaultWaybackEndpoint = "https://archive.org/wayback/available"

	// DefaultFallbackModel is the single model used by the fallback provider.
	DefaultFallbackModel = "gpt-4o-mini"

	// DefaultListenAddress is where `scrapesynth serve` listens.
	DefaultListenAddress = "127.0.0.1:8080"

	// AppName is the application name used for XDG directory paths.
	AppName = "scrapesynth"
)

// DefaultPrimaryModels returns the primary provider cascade, newest first.
// A fresh slice is returned so callers may modify it.
func DefaultPrimaryModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-1.5-flash-latest",
		"gemini-2.0-flash-exp",
	}
}

// Config holds all configuration options for scrapesynth.
// It is populated from defaults, the optional configuration file and CLI
// flags, in that order, and passed down explicitly.
type Config struct {
	// Sources are the addresses to retrieve, in request order.
	Sources []string

	// Instruction is the natural-language request sent to the model.
	Instruction string

	// APIKey is the provider credential. When empty, the environment default
	// is used (see ResolveCredential).
	APIKey string

	// GameMode selects the role-play narrator persona.
	GameMode bool

	// TimeTravel resolves sources through the archive service.
	TimeTravel bool

	// TargetYear is the snapshot year used with TimeTravel.
	TargetYear int

	// FetchTimeout bounds each document fetch.
	FetchTimeout time.Duration

	// LookupTimeout bounds each archive lookup.
	LookupTimeout time.Duration

	// ModelTimeout bounds each model generation request.
	ModelTimeout time.Duration

	// Concurrency is the maximum number of sources processed at once.
	Concurrency int

	// MaxBodySize is the maximum number of response bytes read per document.
	MaxBodySize int64

	// MaxBodyChars caps the extracted body text length.
	MaxBodyChars int

	// MaxImages caps the number of images kept per document.
	MaxImages int

	// UserAgent is sent with every document fetch.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form used for
	// document fetches and archive lookups.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and uses its SOCKS port as the
	// proxy. Mutually exclusive with ProxyAddress.
	UseTor bool

	// WaybackEndpoint is the snapshot availability API endpoint.
	WaybackEndpoint string

	// GeminiBaseURL overrides the primary provider endpoint. Empty means the
	// SDK default.
	GeminiBaseURL string

	// OpenAIBaseURL overrides the fallback provider endpoint. Empty means the
	// SDK default.
	OpenAIBaseURL string

	// PrimaryModels is the ordered cascade for the primary provider.
	PrimaryModels []string

	// FallbackModel is the single model used by the fallback provider.
	FallbackModel string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .scrapesynth is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-site request settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// RenderReport renders the reply as styled terminal markdown.
	RenderReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the history database.
	DBDir string

	// SaveToDB records every run in the history database.
	SaveToDB bool

	// ListenAddress is the address used by the HTTP server.
	ListenAddress string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		TargetYear:      DefaultTargetYear,
		FetchTimeout:    DefaultFetchTimeout,
		LookupTimeout:   DefaultLookupTimeout,
		ModelTimeout:    DefaultModelTimeout,
		Concurrency:     DefaultConcurrency,
		MaxBodySize:     DefaultMaxBodySize,
		MaxBodyChars:    DefaultMaxBodyChars,
		MaxImages:       DefaultMaxImages,
		UserAgent:       DefaultUserAgent,
		WaybackEndpoint: DefaultWaybackEndpoint,
		PrimaryModels:   DefaultPrimaryModels(),
		FallbackModel:   DefaultFallbackModel,
		ListenAddress:   DefaultListenAddress,
		SaveToDB:        true,
		DBDir:           XDGDataDir(),
		SiteConfigs:     &File{Sites: make(map[string]SiteConfig)},
	}
}

// XDGDataDir returns the XDG data directory for scrapesynth.
// On Linux: ~/.local/share/scrapesynth
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for scrapesynth.
// On Linux: ~/.config/scrapesynth
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the operational settings and returns the first problem found.
// Missing sources, instruction or credential are request errors and are
// reported by the synthesis service instead.
func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 || c.LookupTimeout <= 0 || c.ModelTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxBodyChars <= 0 || c.MaxImages < 0 {
		return ErrInvalidCaps
	}
	if c.TimeTravel && c.TargetYear < MinTargetYear {
		return ErrInvalidTargetYear
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	if len(c.PrimaryModels) == 0 {
		return ErrNoPrimaryModels
	}
	if c.FallbackModel == "" {
		return ErrNoFallbackModel
	}

	formats := 0
	for _, on := range []bool{c.JSONReport, c.MarkdownReport, c.RenderReport} {
		if on {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	return nil
}

// ApplyFile copies the non-zero settings of f onto c.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f

	if len(f.Models.Primary) > 0 {
		c.PrimaryModels = append([]string(nil), f.Models.Primary...)
	}
	if f.Models.Fallback != "" {
		c.FallbackModel = f.Models.Fallback
	}
	if f.Endpoints.Wayback != "" {
		c.WaybackEndpoint = f.Endpoints.Wayback
	}
	if f.Endpoints.Gemini != "" {
		c.GeminiBaseURL = f.Endpoints.Gemini
	}
	if f.Endpoints.OpenAI != "" {
		c.OpenAIBaseURL = f.Endpoints.OpenAI
	}
	if f.Fetch.UserAgent != "" {
		c.UserAgent = f.Fetch.UserAgent
	}
	if f.Fetch.Timeout > 0 {
		c.FetchTimeout = f.Fetch.Timeout
	}
	if f.Fetch.LookupTimeout > 0 {
		c.LookupTimeout = f.Fetch.LookupTimeout
	}
	if f.Fetch.Concurrency > 0 {
		c.Concurrency = f.Fetch.Concurrency
	}
	if f.Fetch.Proxy != "" {
		c.ProxyAddress = f.Fetch.Proxy
	}
	if f.Fetch.Tor {
		c.UseTor = true
	}
	if f.Models.Timeout > 0 {
		c.ModelTimeout = f.Models.Timeout
	}
}
