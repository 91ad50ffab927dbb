// Package engine orchestrates the normalize → extract → score → severity
// pipeline for a single record. The engine is a pure function over its input:
// no I/O, no clock, no shared mutable state, so records may be evaluated
// concurrently without coordination.
package engine

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/engine/scorer"
	"github.com/crimson-sun/warden/internal/engine/severity"
	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/normalize"
)

// Engine evaluates records. Construct once at startup and share; all fields
// are read-only after New.
type Engine struct {
	extractor *features.Extractor
	scorer    scorer.Scorer
	severity  *severity.Engine
}

// New creates an Engine from the provided components.
func New(ext *features.Extractor, sc scorer.Scorer, sev *severity.Engine) *Engine {
	return &Engine{extractor: ext, scorer: sc, severity: sev}
}

// Schema returns the feature layout the engine extracts.
func (e *Engine) Schema() *features.Schema { return e.extractor.Schema() }

// Extract exposes the raw feature vector for one canonical record.
func (e *Engine) Extract(rec model.CanonicalRecord) features.Vector {
	return e.extractor.Extract(rec)
}

// Process triages one raw record. Exactly one verdict comes back for every
// input: malformed records produce degraded verdicts, and a scorer failure is
// absorbed into a zero-confidence verdict rather than dropping the record.
func (e *Engine) Process(raw model.RawRecord) model.Verdict {
	rec, degraded := normalize.Normalize(raw)
	return e.ProcessCanonical(rec, degraded)
}

// ProcessCanonical triages an already-normalized record.
func (e *Engine) ProcessCanonical(rec model.CanonicalRecord, degraded bool) model.Verdict {
	vec := e.extractor.Extract(rec)

	label, dist, err := e.scorer.Score(vec)
	if err != nil {
		slog.Warn("scorer failed, emitting degraded verdict", "error", err)
		label = model.LabelBenign
		dist = nil
		degraded = true
	}
	confidence := dist[label]

	score, level, signals := e.severity.Score(label, confidence, vec)

	return model.Verdict{
		Timestamp:     rec.Timestamp,
		SourceIP:      rec.SourceIP,
		Method:        rec.Method,
		URL:           rec.URL,
		Body:          rec.Body,
		Label:         label,
		Confidence:    confidence,
		SeverityScore: score,
		SeverityLevel: level,
		Signals:       signals,
		Degraded:      degraded,
	}
}

// ProcessBatch fans records out over a bounded worker pool and returns
// verdicts in input order. The context only bounds scheduling; each record
// evaluation is itself bounded-time by the extractor's size cap.
func (e *Engine) ProcessBatch(ctx context.Context, raws []model.RawRecord) []model.Verdict {
	verdicts := make([]model.Verdict, len(raws))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			verdicts[i] = e.Process(raw)
			return nil
		})
	}
	_ = g.Wait() // workers never fail; every record yields a verdict

	return verdicts
}
