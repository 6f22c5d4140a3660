package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnalysisConfig holds the knobs for a single analysis run. The manager keeps
// one base config; every call derives its own copy via WithOptions and the
// base is never mutated.
type AnalysisConfig struct {
	Timeout          int    `json:"timeout" yaml:"timeout"`                       // seconds, 5-120
	MaxContentLength int    `json:"max_content_length" yaml:"max_content_length"` // bytes, >= 10000
	UserAgent        string `json:"user_agent" yaml:"user_agent"`
	FollowRedirects  bool   `json:"follow_redirects" yaml:"follow_redirects"`
	MaxRedirects     int    `json:"max_redirects" yaml:"max_redirects"` // 0-10

	ExtractMainContent bool `json:"extract_main_content" yaml:"extract_main_content"`
	ExtractMetadata    bool `json:"extract_metadata" yaml:"extract_metadata"`
	ExtractLinks       bool `json:"extract_links" yaml:"extract_links"`
	ExtractImages      bool `json:"extract_images" yaml:"extract_images"`
	DiscoverFeeds      bool `json:"discover_feeds" yaml:"discover_feeds"`
	CalculateScores    bool `json:"calculate_scores" yaml:"calculate_scores"`

	MinContentLength     int     `json:"min_content_length" yaml:"min_content_length"`
	ReadabilityThreshold float64 `json:"readability_threshold" yaml:"readability_threshold"` // 0-1

	DetectLanguage bool `json:"detect_language" yaml:"detect_language"`

	FeedDiscoveryDepth int  `json:"feed_discovery_depth" yaml:"feed_discovery_depth"` // 1-5
	ValidateFeeds      bool `json:"validate_feeds" yaml:"validate_feeds"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		Timeout:              30,
		MaxContentLength:     1_000_000,
		UserAgent:            "page-analyzer/1.0",
		FollowRedirects:      true,
		MaxRedirects:         5,
		ExtractMainContent:   true,
		ExtractMetadata:      true,
		ExtractLinks:         false,
		ExtractImages:        false,
		DiscoverFeeds:        true,
		CalculateScores:      true,
		MinContentLength:     100,
		ReadabilityThreshold: 0.5,
		DetectLanguage:       true,
		FeedDiscoveryDepth:   2,
		ValidateFeeds:        true,
	}
}

// LoadConfig reads a YAML config file and overlays it on the defaults.
func LoadConfig(path string) (AnalysisConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg.Normalize(), nil
}

// Normalize clamps out-of-range values back into their documented bounds.
func (c AnalysisConfig) Normalize() AnalysisConfig {
	if c.Timeout < 5 {
		c.Timeout = 5
	}
	if c.Timeout > 120 {
		c.Timeout = 120
	}
	if c.MaxContentLength < 10_000 {
		c.MaxContentLength = 10_000
	}
	if c.MaxRedirects < 0 {
		c.MaxRedirects = 0
	}
	if c.MaxRedirects > 10 {
		c.MaxRedirects = 10
	}
	if c.MinContentLength < 0 {
		c.MinContentLength = 0
	}
	if c.ReadabilityThreshold < 0 {
		c.ReadabilityThreshold = 0
	}
	if c.ReadabilityThreshold > 1 {
		c.ReadabilityThreshold = 1
	}
	if c.FeedDiscoveryDepth < 1 {
		c.FeedDiscoveryDepth = 1
	}
	if c.FeedDiscoveryDepth > 5 {
		c.FeedDiscoveryDepth = 5
	}
	return c
}

// WithOptions returns a copy of the config with recognized option keys
// overlaid. Unknown keys are ignored. The receiver is never modified, so a
// shared base config stays safe under concurrent per-call overlays.
func (c AnalysisConfig) WithOptions(options map[string]any) AnalysisConfig {
	for key, value := range options {
		switch key {
		case "timeout":
			if v, ok := asInt(value); ok {
				c.Timeout = v
			}
		case "max_content_length":
			if v, ok := asInt(value); ok {
				c.MaxContentLength = v
			}
		case "user_agent":
			if v, ok := value.(string); ok && v != "" {
				c.UserAgent = v
			}
		case "follow_redirects":
			if v, ok := value.(bool); ok {
				c.FollowRedirects = v
			}
		case "max_redirects":
			if v, ok := asInt(value); ok {
				c.MaxRedirects = v
			}
		case "extract_main_content":
			if v, ok := value.(bool); ok {
				c.ExtractMainContent = v
			}
		case "extract_metadata":
			if v, ok := value.(bool); ok {
				c.ExtractMetadata = v
			}
		case "extract_links":
			if v, ok := value.(bool); ok {
				c.ExtractLinks = v
			}
		case "extract_images":
			if v, ok := value.(bool); ok {
				c.ExtractImages = v
			}
		case "discover_feeds":
			if v, ok := value.(bool); ok {
				c.DiscoverFeeds = v
			}
		case "calculate_scores":
			if v, ok := value.(bool); ok {
				c.CalculateScores = v
			}
		case "min_content_length":
			if v, ok := asInt(value); ok {
				c.MinContentLength = v
			}
		case "readability_threshold":
			if v, ok := asFloat(value); ok {
				c.ReadabilityThreshold = v
			}
		case "detect_language":
			if v, ok := value.(bool); ok {
				c.DetectLanguage = v
			}
		case "feed_discovery_depth":
			if v, ok := asInt(value); ok {
				c.FeedDiscoveryDepth = v
			}
		case "validate_feeds":
			if v, ok := value.(bool); ok {
				c.ValidateFeeds = v
			}
		}
	}
	return c.Normalize()
}

// asInt accepts the numeric types JSON decoding and callers commonly produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
