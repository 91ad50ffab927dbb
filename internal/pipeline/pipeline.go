// Package pipeline connects a record source, the triage engine, and a
// verdict output. It is the batch shell around the pure engine: ordering,
// counting, and wall-clock substitution live here, never inside the engine.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/crimson-sun/warden/internal/engine"
	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/observability"
	"github.com/crimson-sun/warden/internal/output"
)

// Stats summarizes one batch run. Degraded records are reported alongside
// normal output; none are ever omitted.
type Stats struct {
	Total    int
	Degraded int
	ByLevel  map[model.SeverityLevel]int
}

// Pipeline wires the engine to an output.
type Pipeline struct {
	engine  *engine.Engine
	out     output.Output
	metrics *observability.Metrics // nil disables metrics
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock overrides the timestamp fallback clock; used by tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline from the given components.
func New(eng *engine.Engine, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{engine: eng, out: out, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run triages every record and writes verdicts in input order. Per-record
// problems are absorbed into degraded verdicts; only output failures abort.
func (p *Pipeline) Run(ctx context.Context, records []model.RawRecord) (Stats, error) {
	stats := Stats{ByLevel: make(map[model.SeverityLevel]int)}

	start := p.now()
	verdicts := p.engine.ProcessBatch(ctx, records)
	elapsed := p.now().Sub(start)
	perRecord := time.Duration(0)
	if len(verdicts) > 0 {
		perRecord = elapsed / time.Duration(len(verdicts))
	}

	for _, v := range verdicts {
		v = p.stamp(v)
		if err := p.out.Write(ctx, v); err != nil {
			return stats, fmt.Errorf("pipeline output: %w", err)
		}
		stats.Total++
		stats.ByLevel[v.SeverityLevel]++
		if v.Degraded {
			stats.Degraded++
		}
		if p.metrics != nil {
			p.metrics.ObserveVerdict(v, perRecord)
		}
	}
	return stats, nil
}

// ProcessOne triages a single record, for streaming callers. One record in,
// exactly one verdict out, no buffering across calls.
func (p *Pipeline) ProcessOne(raw model.RawRecord) model.Verdict {
	start := p.now()
	v := p.stamp(p.engine.Process(raw))
	if p.metrics != nil {
		p.metrics.ObserveVerdict(v, p.now().Sub(start))
	}
	return v
}

// stamp substitutes the current time for records that carried no usable
// timestamp. This is deliberately outside the engine, which must stay
// clock-free.
func (p *Pipeline) stamp(v model.Verdict) model.Verdict {
	if v.Timestamp.IsZero() {
		v.Timestamp = p.now().UTC()
	}
	return v
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.out.Close()
}
