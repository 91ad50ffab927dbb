// Package severity turns classifier output plus raw meta-feature signals into
// a 0–100 triage score and a discrete level. The score is deliberately not
// the classifier's confidence alone: extreme raw signals escalate severity
// even when the learned model is uncertain, which blunts adversarial evasion
// of the classifier.
package severity

import (
	"fmt"
	"math"
	"sort"

	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/model"
)

// Cut maps scores strictly below Below to Level. Cuts are ordered ascending;
// scores at or above the last cut get the Final level.
type Cut struct {
	Below int                 `yaml:"below"`
	Level model.SeverityLevel `yaml:"level"`
}

// Config holds the severity formula constants. These are tuned configuration,
// not learned parameters.
type Config struct {
	WConf float64 `yaml:"confidence_weight"` // weight of classifier confidence
	WSig  float64 `yaml:"signal_weight"`     // weight of raw signal strength

	// References give, per feature, the value at which that signal is
	// considered saturated. Signals are normalized as min(value/ref, 1).
	References map[string]float64 `yaml:"references"`

	Cuts  []Cut               `yaml:"cuts"`
	Final model.SeverityLevel `yaml:"final"`

	// TopK is how many contributing signals are aggregated and reported.
	TopK int `yaml:"top_k"`

	// BenignFloor: a Benign label with signal strength below this maps
	// straight to SAFE, regardless of confidence noise.
	BenignFloor float64 `yaml:"benign_floor"`
}

// DefaultConfig returns the shipped severity constants.
func DefaultConfig() Config {
	return Config{
		WConf: 0.6,
		WSig:  0.4,
		References: map[string]float64{
			// Plain English text sits near 4 bits; encoded or compressed
			// payloads approach the printable-ASCII ceiling around 6.5.
			"entropy":              6.5,
			"special_ratio":        0.5,
			"longest_special_seq":  8,
			"cmd_keyword_count":    4,
			"cmd_special_count":    6,
			"shell_pattern_count":  2,
			"path_traversal_count": 2,
			"sensitive_file_count": 1,
			"sql_keyword_count":    6,
			"sql_comment_count":    3,
			"sql_boolean_ops":      2,
			"sql_func_count":       2,
			"sql_logic_count":      5,
			"xss_tag_count":        2,
			"xss_event_count":      2,
			"js_proto_count":       1,
			"xss_js_uri_count":     1,
			"xss_rare_tag_count":   1,
			"unicode_escape_count": 3,
			"base64_chunk_count":   2,
			"broken_auth_count":    6,
			"decode_layer_count":   3,
		},
		Cuts: []Cut{
			{Below: 20, Level: model.SeveritySafe},
			{Below: 40, Level: model.SeverityLow},
			{Below: 60, Level: model.SeverityMedium},
			{Below: 85, Level: model.SeverityHigh},
		},
		Final:       model.SeverityCritical,
		TopK:        5,
		BenignFloor: 0.2,
	}
}

type refSignal struct {
	index int
	name  string
	ref   float64
}

// Engine computes severity verdicts. Immutable after New; safe for
// unrestricted concurrent use.
type Engine struct {
	cfg  Config
	refs []refSignal // schema order
}

// New validates the configuration against the feature schema. Non-monotonic
// cuts, unknown reference names, and degenerate weights are startup errors.
func New(cfg Config, schema *features.Schema) (*Engine, error) {
	if cfg.WConf < 0 || cfg.WSig < 0 || cfg.WConf+cfg.WSig == 0 {
		return nil, fmt.Errorf("severity: weights must be non-negative and not both zero")
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("severity: top_k must be positive")
	}
	if cfg.Final == "" {
		return nil, fmt.Errorf("severity: final level is required")
	}
	if len(cfg.Cuts) == 0 {
		return nil, fmt.Errorf("severity: at least one threshold cut is required")
	}
	prev := 0
	for i, c := range cfg.Cuts {
		if c.Below <= prev || c.Below > 100 {
			return nil, fmt.Errorf("severity: cut %d: thresholds must be strictly increasing within (0,100]", i)
		}
		if c.Level == "" {
			return nil, fmt.Errorf("severity: cut %d: missing level", i)
		}
		prev = c.Below
	}

	e := &Engine{cfg: cfg}
	for idx, name := range schema.Names() {
		ref, ok := cfg.References[name]
		if !ok {
			continue
		}
		if ref <= 0 {
			return nil, fmt.Errorf("severity: reference for %q must be positive", name)
		}
		e.refs = append(e.refs, refSignal{index: idx, name: name, ref: ref})
	}
	for name := range cfg.References {
		if _, ok := schema.Index(name); !ok {
			return nil, fmt.Errorf("severity: reference %q names no schema feature", name)
		}
	}
	if len(e.refs) == 0 {
		return nil, fmt.Errorf("severity: no references overlap the feature schema")
	}
	return e, nil
}

type contribution struct {
	refSignal
	value  float64 // raw feature value
	effect float64 // normalized, in [0,1]
}

// Score combines confidence with raw signal strength.
//
//	score = clamp(round(100 * (wConf*conf + wSig*sig)), 0, 100)
//
// where sig is the mean of the top-k normalized signal contributions.
func (e *Engine) Score(label model.Label, confidence float64, vec features.Vector) (int, model.SeverityLevel, []model.Signal) {
	contribs := make([]contribution, 0, len(e.refs))
	for _, r := range e.refs {
		if r.index >= len(vec) {
			continue
		}
		v := vec[r.index]
		contribs = append(contribs, contribution{
			refSignal: r,
			value:     v,
			effect:    math.Min(math.Abs(v)/r.ref, 1),
		})
	}

	// Descending by effect; equal effects resolve by schema index so the
	// reported signals are stable across runs.
	sort.SliceStable(contribs, func(i, j int) bool {
		if contribs[i].effect != contribs[j].effect {
			return contribs[i].effect > contribs[j].effect
		}
		return contribs[i].index < contribs[j].index
	})

	k := e.cfg.TopK
	if k > len(contribs) {
		k = len(contribs)
	}
	var sig float64
	for _, c := range contribs[:k] {
		sig += c.effect
	}
	if k > 0 {
		sig /= float64(k)
	}

	signals := make([]model.Signal, 0, k)
	for _, c := range contribs[:k] {
		signals = append(signals, model.Signal{Name: c.name, Value: c.value})
	}

	if label == model.LabelBenign && sig < e.cfg.BenignFloor {
		return 0, model.SeveritySafe, signals
	}

	raw := 100 * (e.cfg.WConf*confidence + e.cfg.WSig*sig) / (e.cfg.WConf + e.cfg.WSig)
	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, e.level(score), signals
}

func (e *Engine) level(score int) model.SeverityLevel {
	for _, c := range e.cfg.Cuts {
		if score < c.Below {
			return c.Level
		}
	}
	return e.cfg.Final
}
