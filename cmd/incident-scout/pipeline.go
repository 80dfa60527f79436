// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/meshintel/incident-scout/internal/archive"
	"github.com/meshintel/incident-scout/internal/extract"
	"github.com/meshintel/incident-scout/internal/hints"
	"github.com/meshintel/incident-scout/internal/relevance"
	"github.com/meshintel/incident-scout/internal/session"
	"github.com/meshintel/incident-scout/internal/source"
	"github.com/meshintel/incident-scout/pkg/types"
)

// pipeline bundles the assembled search components.
type pipeline struct {
	runner  *session.Runner
	matcher *relevance.Matcher
	store   *archive.Store // nil when archiving is disabled
}

// buildPipeline wires the document sources, extractor, matcher, and optional
// archive into a runner.
func buildPipeline(cfg types.PipelineConfig, logger *log.Logger) (*pipeline, error) {
	defs, err := source.LoadDefinitions(cfg.Sources.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	fetcher := source.NewFetcher(source.Build(defs, cfg.Sources), cfg.Sources.MaxDocuments, logger)

	backend := extract.NewOllamaBackend(cfg.LLM)
	extractor := extract.New(backend, cfg.LLM.MaxRetries, logger)

	matcher := relevance.New(cfg.Relevance)

	var store *archive.Store
	var archiver session.Archiver
	if cfg.Archive.Path != "" {
		store, err = archive.NewStore(cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		archiver = store
	}

	return &pipeline{
		runner:  session.NewRunner(fetcher, hints.New(), extractor, matcher, archiver, logger),
		matcher: matcher,
		store:   store,
	}, nil
}

// close releases pipeline resources.
func (p *pipeline) close() {
	if p.store != nil {
		p.store.Close()
	}
}
