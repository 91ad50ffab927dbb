// Package dedup collapses repeated alert verdicts. A scanner hammering one
// endpoint produces thousands of near-identical verdicts; reporting each one
// buries the operator, so identical source/label/URL triples within a time
// window merge into a single verdict carrying a repeat count.
package dedup

import (
	"time"

	"github.com/crimson-sun/warden/internal/model"
)

// DefaultWindow is the grouping window when none is configured.
const DefaultWindow = 5 * time.Second

// Config controls collapse behavior.
type Config struct {
	Window time.Duration
}

// Suppressor collapses repeated verdicts. Stateless across calls; each batch
// is collapsed independently.
type Suppressor struct {
	cfg Config
}

// New creates a Suppressor with the given config.
func New(cfg Config) *Suppressor {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Suppressor{cfg: cfg}
}

type group struct {
	verdict  model.Verdict
	repeats  int
	firstTS  time.Time
	latestTS time.Time
}

// Collapse merges verdicts with identical SourceIP, Label, and URL whose
// timestamps fall within Window of the group's first occurrence. Verdicts come
// back in first-occurrence order; a merged verdict keeps the group's highest
// severity and carries the repeat count.
func (s *Suppressor) Collapse(verdicts []model.Verdict) []model.Verdict {
	if len(verdicts) == 0 {
		return nil
	}

	var order []*group
	groups := make(map[string]*group)

	for _, v := range verdicts {
		key := v.SourceIP + "\x00" + string(v.Label) + "\x00" + v.URL

		g, exists := groups[key]
		if exists && !v.Timestamp.Before(g.firstTS) && v.Timestamp.Sub(g.firstTS) <= s.cfg.Window {
			g.repeats++
			if v.Timestamp.After(g.latestTS) {
				g.latestTS = v.Timestamp
			}
			if v.SeverityScore > g.verdict.SeverityScore {
				g.verdict.SeverityScore = v.SeverityScore
				g.verdict.SeverityLevel = v.SeverityLevel
			}
			continue
		}

		// New group: unseen key, or the previous group's window lapsed.
		g = &group{verdict: v, repeats: 1, firstTS: v.Timestamp, latestTS: v.Timestamp}
		groups[key] = g
		order = append(order, g)
	}

	result := make([]model.Verdict, 0, len(order))
	for _, g := range order {
		v := g.verdict
		if g.repeats > 1 {
			v.Repeats = g.repeats
		}
		result = append(result, v)
	}
	return result
}
