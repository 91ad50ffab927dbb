// Package features turns a canonical record into the fixed-order numeric
// vector the scorer was trained against. The schema (name → index) is the
// compatibility contract with the trained model: the order never changes
// without a version bump and a retrain.
package features

import "fmt"

// SchemaVersion identifies the current feature layout. Bump it whenever
// DefaultNames changes in length or order.
const SchemaVersion = "2"

// DefaultNames returns the built-in feature order. The first 22 entries match
// the layout the shipped model was trained on; the tail extends it with
// decode and structure signals.
func DefaultNames() []string {
	return []string{
		"url_length", "entropy", "num_special", "special_ratio",
		"longest_special_seq",
		"cmd_keyword_count", "sql_comment_count", "cmd_special_count",
		"sql_keyword_count", "sql_boolean_ops", "sql_func_count",
		"xss_tag_count", "xss_event_count", "js_proto_count",
		"path_traversal_count", "sensitive_file_count", "shell_pattern_count",
		"xss_js_uri_count", "xss_rare_tag_count",
		"unicode_escape_count", "base64_chunk_count",
		"sql_logic_count",
		"broken_auth_count",
		"decode_layer_count", "decode_len_delta",
		"token_count", "nonprintable_ratio", "truncated",
	}
}

// Schema is an immutable ordered feature layout.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema builds a Schema from an ordered name list, rejecting duplicates
// and empty names.
func NewSchema(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("features: empty schema")
	}
	s := &Schema{
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
	}
	for i, name := range s.names {
		if name == "" {
			return nil, fmt.Errorf("features: empty feature name at index %d", i)
		}
		if _, dup := s.index[name]; dup {
			return nil, fmt.Errorf("features: duplicate feature name %q", name)
		}
		s.index[name] = i
	}
	return s, nil
}

// DefaultSchema returns the built-in schema. The defaults are tested, so a
// failure here is a programming error.
func DefaultSchema() *Schema {
	s, err := NewSchema(DefaultNames())
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the vector width.
func (s *Schema) Len() int { return len(s.names) }

// Names returns the feature names in vector order.
func (s *Schema) Names() []string { return append([]string(nil), s.names...) }

// Name returns the feature name at index i.
func (s *Schema) Name(i int) string { return s.names[i] }

// Index returns the vector index of the named feature.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Vector is a feature vector laid out according to a Schema.
type Vector []float64
