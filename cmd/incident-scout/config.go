// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/meshintel/incident-scout/pkg/types"
)

const defaultUserAgent = "incident-scout/0.1"

// loadPipelineConfig assembles the full pipeline configuration from viper,
// which merges the config file and INCIDENT_SCOUT_* environment variables
// over the built-in defaults.
func loadPipelineConfig() types.PipelineConfig {
	viper.SetDefault("sources.file", "sources.yaml")
	viper.SetDefault("sources.timeout", 30*time.Second)
	viper.SetDefault("sources.max_documents", 30)
	viper.SetDefault("sources.requests_per_second", 1.0)
	viper.SetDefault("sources.fetch_full_pages", false)

	viper.SetDefault("llm.base_url", "http://localhost:11434")
	viper.SetDefault("llm.model", "llama3.1:8b")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.timeout", 120*time.Second)
	viper.SetDefault("llm.max_retries", 2)

	viper.SetDefault("session.retention", time.Hour)
	viper.SetDefault("session.evict_interval", 5*time.Minute)

	viper.SetDefault("server.addr", ":8080")

	viper.SetDefault("archive.path", "")

	rel := types.DefaultRelevanceConfig()
	viper.SetDefault("relevance.text_weight", rel.TextWeight)
	viper.SetDefault("relevance.location_weight", rel.LocationWeight)
	viper.SetDefault("relevance.date_weight", rel.DateWeight)
	viper.SetDefault("relevance.type_weight", rel.TypeWeight)
	viper.SetDefault("relevance.date_proximity_days", rel.DateProximityDays)
	viper.SetDefault("relevance.default_min_relevance", rel.DefaultMinRelevance)

	return types.PipelineConfig{
		Sources: types.SourcesConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("sources.timeout"),
				UserAgent: defaultUserAgent,
			},
			SourcesFile:       viper.GetString("sources.file"),
			MaxDocuments:      viper.GetInt("sources.max_documents"),
			RequestsPerSecond: viper.GetFloat64("sources.requests_per_second"),
			FetchFullPages:    viper.GetBool("sources.fetch_full_pages"),
		},
		LLM: types.LLMConfig{
			BaseURL:     viper.GetString("llm.base_url"),
			Model:       viper.GetString("llm.model"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
			Timeout:     viper.GetDuration("llm.timeout"),
			MaxRetries:  viper.GetInt("llm.max_retries"),
			APIKey:      secretDefault("llm-api-key", viper.GetString("llm.api_key")),
		},
		Relevance: types.RelevanceConfig{
			TextWeight:          viper.GetFloat64("relevance.text_weight"),
			LocationWeight:      viper.GetFloat64("relevance.location_weight"),
			DateWeight:          viper.GetFloat64("relevance.date_weight"),
			TypeWeight:          viper.GetFloat64("relevance.type_weight"),
			DateProximityDays:   viper.GetInt("relevance.date_proximity_days"),
			DefaultMinRelevance: viper.GetFloat64("relevance.default_min_relevance"),
		},
		Session: types.SessionConfig{
			Retention:     viper.GetDuration("session.retention"),
			EvictInterval: viper.GetDuration("session.evict_interval"),
		},
		Server: types.ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
		Archive: types.ArchiveConfig{
			Path: viper.GetString("archive.path"),
		},
	}
}
