// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/incident-scout/pkg/types"
)

// Definition is one entry in the sources file.
type Definition struct {
	// Name labels documents from this source.
	Name string `yaml:"name"`

	// URL is the RSS/Atom feed URL.
	URL string `yaml:"url"`
}

// definitionsFile is the on-disk shape of the sources file.
type definitionsFile struct {
	Sources []Definition `yaml:"sources"`
}

// LoadDefinitions reads and validates the YAML sources file.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file %s: %w", path, err)
	}

	var f definitionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}

	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}
	for i, d := range f.Sources {
		if d.Name == "" {
			return nil, fmt.Errorf("sources file %s: entry %d has no name", path, i)
		}
		if d.URL == "" {
			return nil, fmt.Errorf("sources file %s: source %q has no url", path, d.Name)
		}
	}
	return f.Sources, nil
}

// Build assembles feed sources from definitions and config.
func Build(defs []Definition, cfg types.SourcesConfig) []Source {
	var pages *PageFetcher
	if cfg.FetchFullPages {
		pages = NewPageFetcher(cfg.Timeout, cfg.UserAgent)
	}

	sources := make([]Source, 0, len(defs))
	for _, d := range defs {
		sources = append(sources, NewFeedSource(d.Name, d.URL, cfg.UserAgent, cfg.RequestsPerSecond, pages))
	}
	return sources
}
