package scorer

import (
	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/model"
)

// classWeights maps each attack class to the features that vote for it and
// their weights. The benign class gets a constant bias instead, so empty
// payloads resolve to Benign rather than a five-way tie.
var classWeights = map[model.Label]map[string]float64{
	model.LabelSQLi: {
		"sql_keyword_count": 0.5,
		"sql_comment_count": 1,
		"sql_boolean_ops":   2,
		"sql_func_count":    1,
		"sql_logic_count":   1,
	},
	model.LabelXSS: {
		"xss_tag_count":      2,
		"xss_event_count":    2,
		"js_proto_count":     2,
		"xss_js_uri_count":   2,
		"xss_rare_tag_count": 1,
	},
	model.LabelCmdInject: {
		"cmd_keyword_count":    0.5,
		"cmd_special_count":    0.25,
		"shell_pattern_count":  2,
		"path_traversal_count": 2,
		"sensitive_file_count": 2,
	},
	model.LabelBrokenAuth: {
		"broken_auth_count": 0.5,
	},
}

const benignBias = 1.5

// Static is a deterministic rule-derived scorer: a weighted vote over the
// pattern features, softmaxed into a distribution. It exists so the pipeline,
// the serve shell, and the tests run without model files, and it doubles as
// the reference scorer for the validate command.
type Static struct {
	schema *features.Schema
}

// NewStatic creates a Static scorer bound to the given schema.
func NewStatic(schema *features.Schema) *Static {
	return &Static{schema: schema}
}

// Score computes the weighted class votes for the vector.
func (s *Static) Score(vec features.Vector) (model.Label, map[model.Label]float64, error) {
	labels := model.Labels()
	scores := make([]float64, len(labels))
	for i, label := range labels {
		if label == model.LabelBenign {
			scores[i] = benignBias
			continue
		}
		for name, w := range classWeights[label] {
			if idx, ok := s.schema.Index(name); ok && idx < len(vec) {
				scores[i] += w * vec[idx]
			}
		}
	}

	label, dist := distribution(scores)
	return label, dist, nil
}

// Close is a no-op; Static holds no resources.
func (s *Static) Close() error { return nil }
