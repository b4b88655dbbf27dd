package config

import "time"

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is sent with document fetches to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ModelsSection configures the providers' model lists.
type ModelsSection struct {
	Primary  []string      `yaml:"primary,omitempty"`
	Fallback string        `yaml:"fallback,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// EndpointsSection overrides external service endpoints.
type EndpointsSection struct {
	Wayback string `yaml:"wayback,omitempty"`
	Gemini  string `yaml:"gemini,omitempty"`
	OpenAI  string `yaml:"openai,omitempty"`
}

// FetchSection configures document retrieval.
type FetchSection struct {
	UserAgent     string        `yaml:"userAgent,omitempty"`
	Timeout       time.Duration `yaml:"timeout,omitempty"`
	LookupTimeout time.Duration `yaml:"lookupTimeout,omitempty"`
	Concurrency   int           `yaml:"concurrency,omitempty"`
	Proxy         string        `yaml:"proxy,omitempty"`
	Tor           bool          `yaml:"tor,omitempty"`
}

// File represents the structure of the .scrapesynth configuration file.
type File struct {
	Models    ModelsSection    `yaml:"models,omitempty"`
	Endpoints EndpointsSection `yaml:"endpoints,omitempty"`
	Fetch     FetchSection     `yaml:"fetch,omitempty"`

	// Sites maps host names to their request settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for host merged over the defaults.
// Site headers override default headers with the same name.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{Cookie: cf.Defaults.Cookie}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	return result
}
