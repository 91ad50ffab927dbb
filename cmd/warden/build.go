package main

import (
	"fmt"

	"github.com/crimson-sun/warden/internal/config"
	"github.com/crimson-sun/warden/internal/engine"
	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/engine/patterns"
	"github.com/crimson-sun/warden/internal/engine/scorer"
	"github.com/crimson-sun/warden/internal/engine/severity"
)

// buildEngine compiles the configuration into a ready engine. Every failure
// here is a startup error: the process must not begin serving records with a
// partial stack.
func buildEngine(cfg config.Config) (*engine.Engine, func() error, error) {
	schema, err := features.NewSchema(cfg.Schema.Features)
	if err != nil {
		return nil, nil, err
	}

	cat, err := patterns.Compile(cfg.Patterns)
	if err != nil {
		return nil, nil, err
	}

	ext, err := features.NewExtractor(schema, cat, cfg.Decode.MaxLayers, cfg.Decode.SizeCap)
	if err != nil {
		return nil, nil, err
	}

	sev, err := severity.New(cfg.Severity, schema)
	if err != nil {
		return nil, nil, err
	}

	var sc scorer.Scorer
	switch cfg.Scorer.Kind {
	case config.ScorerONNX:
		sc, err = scorer.NewONNX(cfg.Scorer.ModelPath, schema)
		if err != nil {
			return nil, nil, fmt.Errorf("load scorer: %w", err)
		}
	case config.ScorerStatic:
		sc = scorer.NewStatic(schema)
	default:
		return nil, nil, fmt.Errorf("unknown scorer kind %q", cfg.Scorer.Kind)
	}

	return engine.New(ext, sc, sev), sc.Close, nil
}
