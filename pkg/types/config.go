// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "incident-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for the document source layer.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// SourcesFile is the YAML file listing feed sources.
	SourcesFile string `json:"sources_file" yaml:"sources_file"`

	// MaxDocuments caps the documents a session pulls per run (default 30).
	MaxDocuments int `json:"max_documents" yaml:"max_documents"`

	// RequestsPerSecond is the per-source rate limit (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// FetchFullPages controls whether item links are fetched and the article
	// body extracted from the page, instead of relying on feed summaries.
	FetchFullPages bool `json:"fetch_full_pages" yaml:"fetch_full_pages"`
}

// LLMConfig holds settings for the text-generation backend.
type LLMConfig struct {
	// BaseURL is the inference endpoint (e.g. "http://localhost:11434").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the model identifier (e.g. "llama3.1:8b").
	Model string `json:"model" yaml:"model"`

	// Temperature is the sampling temperature. Kept low: extraction wants
	// deterministic, structured output (default 0.1).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens bounds the generated output length (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout is the per-call timeout (default 120s; small local models
	// are slow).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// APIKey is an optional bearer token for hosted endpoints.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// RelevanceConfig holds the scoring weights and thresholds for the matcher.
// Weights must sum to 1.0.
type RelevanceConfig struct {
	TextWeight     float64 `json:"text_weight" yaml:"text_weight"`
	LocationWeight float64 `json:"location_weight" yaml:"location_weight"`
	DateWeight     float64 `json:"date_weight" yaml:"date_weight"`
	TypeWeight     float64 `json:"type_weight" yaml:"type_weight"`

	// DateProximityDays is how far outside the query date range an event may
	// fall before its date score reaches zero (default 30).
	DateProximityDays int `json:"date_proximity_days" yaml:"date_proximity_days"`

	// DefaultMinRelevance is used when a query does not set MinRelevance
	// (default 0.3).
	DefaultMinRelevance float64 `json:"default_min_relevance" yaml:"default_min_relevance"`
}

// DefaultRelevanceConfig returns the standard weighting.
func DefaultRelevanceConfig() RelevanceConfig {
	return RelevanceConfig{
		TextWeight:          0.40,
		LocationWeight:      0.25,
		DateWeight:          0.20,
		TypeWeight:          0.15,
		DateProximityDays:   30,
		DefaultMinRelevance: 0.3,
	}
}

// SessionConfig holds settings for the session registry.
type SessionConfig struct {
	// Retention is how long sessions are kept after creation, regardless of
	// terminal state (default 1h).
	Retention time.Duration `json:"retention" yaml:"retention"`

	// EvictInterval is how often the registry sweeps expired sessions
	// (default 5m).
	EvictInterval time.Duration `json:"evict_interval" yaml:"evict_interval"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// ArchiveConfig holds settings for the event archive.
type ArchiveConfig struct {
	// Path is the SQLite database file. Empty disables archiving.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Sources   SourcesConfig   `json:"sources" yaml:"sources"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Relevance RelevanceConfig `json:"relevance" yaml:"relevance"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive"`
}
