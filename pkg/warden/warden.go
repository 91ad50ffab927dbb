// Package warden provides an embeddable HTTP payload triage engine. It
// classifies a request's URL and body as benign or one of several attack
// classes, and combines classifier confidence with raw obfuscation and
// injection signals into an actionable severity verdict.
//
// Quick start:
//
//	w, err := warden.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	v := w.Classify("/login?id=1' OR 1=1--", "")
//	fmt.Println(v.Label, v.SeverityLevel) // SQLi HIGH
//
// A Warden instance is safe for concurrent use. Create once, reuse across
// requests.
package warden

import (
	"fmt"

	"github.com/crimson-sun/warden/internal/config"
	"github.com/crimson-sun/warden/internal/engine"
	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/engine/patterns"
	"github.com/crimson-sun/warden/internal/engine/scorer"
	"github.com/crimson-sun/warden/internal/engine/severity"
	"github.com/crimson-sun/warden/internal/model"
)

// Verdict is the stable public result type. Internal representations may
// evolve independently without breaking consumers.
type Verdict = model.Verdict

// Record is a loosely-typed log record accepted by TriageRecord; field names
// follow common log conventions (url, body, method, ip, time, headers).
type Record = model.RawRecord

// Warden is an HTTP payload triage engine. Safe for concurrent use.
type Warden struct {
	engine *engine.Engine
	closer func() error
}

// New creates a Warden instance. With no options it runs entirely from the
// built-in schema, catalogue, and rule-derived scorer; WithModelPath switches
// to a trained ONNX classifier, which is loaded once here — an expensive
// operation. Create once, reuse across requests.
func New(opts ...Option) (*Warden, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfgErr != nil {
		return nil, fmt.Errorf("warden: %w", o.cfgErr)
	}

	cfg := o.cfg

	schema, err := features.NewSchema(cfg.Schema.Features)
	if err != nil {
		return nil, fmt.Errorf("warden: %w", err)
	}
	cat, err := patterns.Compile(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("warden: %w", err)
	}
	ext, err := features.NewExtractor(schema, cat, cfg.Decode.MaxLayers, cfg.Decode.SizeCap)
	if err != nil {
		return nil, fmt.Errorf("warden: %w", err)
	}
	sev, err := severity.New(cfg.Severity, schema)
	if err != nil {
		return nil, fmt.Errorf("warden: %w", err)
	}

	var sc scorer.Scorer
	switch cfg.Scorer.Kind {
	case config.ScorerONNX:
		sc, err = scorer.NewONNX(cfg.Scorer.ModelPath, schema)
		if err != nil {
			return nil, fmt.Errorf("warden: %w", err)
		}
	case config.ScorerStatic:
		sc = scorer.NewStatic(schema)
	default:
		return nil, fmt.Errorf("warden: unknown scorer kind %q", cfg.Scorer.Kind)
	}

	return &Warden{
		engine: engine.New(ext, sc, sev),
		closer: sc.Close,
	}, nil
}

// Classify triages a single URL and body pair.
func (w *Warden) Classify(url, body string) Verdict {
	return w.engine.ProcessCanonical(model.CanonicalRecord{
		Method: "GET",
		URL:    url,
		Body:   body,
	}, false)
}

// TriageRecord triages a loosely-typed log record. Missing or malformed
// fields never fail the call; the verdict's Degraded flag reports them.
func (w *Warden) TriageRecord(rec Record) Verdict {
	return w.engine.Process(rec)
}

// Close releases scorer resources.
func (w *Warden) Close() error {
	return w.closer()
}
