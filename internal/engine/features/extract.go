package features

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/crimson-sun/warden/internal/engine/decode"
	"github.com/crimson-sun/warden/internal/engine/patterns"
	"github.com/crimson-sun/warden/internal/model"
)

// DefaultSizeCap bounds how many bytes of URL and body each enter extraction.
// Inputs beyond the cap are truncated deterministically and flagged.
const DefaultSizeCap = 4096

// statistical features computed directly by the extractor; every other schema
// name must resolve to a catalogue detector.
var statNames = map[string]bool{
	"url_length": true, "entropy": true, "num_special": true,
	"special_ratio": true, "longest_special_seq": true,
	"decode_layer_count": true, "decode_len_delta": true,
	"token_count": true, "nonprintable_ratio": true, "truncated": true,
}

// Extractor is a pure, deterministic CanonicalRecord → Vector transform.
// Immutable after construction; safe for unrestricted concurrent use.
type Extractor struct {
	schema    *Schema
	catalogue *patterns.Catalogue
	maxLayers int
	sizeCap   int
}

// NewExtractor wires a schema and compiled catalogue together, verifying at
// startup that every schema name is computable: either a statistical feature
// or a detector in the catalogue.
func NewExtractor(schema *Schema, cat *patterns.Catalogue, maxLayers, sizeCap int) (*Extractor, error) {
	if maxLayers <= 0 {
		maxLayers = decode.DefaultMaxLayers
	}
	if sizeCap <= 0 {
		sizeCap = DefaultSizeCap
	}
	for _, name := range schema.names {
		if statNames[name] {
			continue
		}
		if _, ok := cat.Lookup(name); !ok {
			return nil, fmt.Errorf("features: schema name %q is neither statistical nor a catalogue detector", name)
		}
	}
	return &Extractor{schema: schema, catalogue: cat, maxLayers: maxLayers, sizeCap: sizeCap}, nil
}

// Schema returns the extractor's feature layout.
func (e *Extractor) Schema() *Schema { return e.schema }

// Extract computes the feature vector for one record. No wall clock, no
// randomness: two calls on the same record are bit-identical.
func (e *Extractor) Extract(rec model.CanonicalRecord) Vector {
	url, urlCut := truncate(rec.URL, e.sizeCap)
	body, bodyCut := truncate(rec.Body, e.sizeCap)

	rawCombined := url + " " + body

	decURL := decode.Decode(url, e.maxLayers)
	decBody := decode.Decode(body, e.maxLayers)
	text := decode.Normalize(decURL.Text + " " + decBody.Text)

	layers := decURL.Layers
	if decBody.Layers > layers {
		layers = decBody.Layers
	}

	textLen := utf8.RuneCountInString(text)
	special := countSpecial(text)

	counts := e.catalogue.CountAll(text)

	vec := make(Vector, e.schema.Len())
	for i, name := range e.schema.names {
		switch name {
		case "url_length":
			vec[i] = float64(textLen)
		case "entropy":
			vec[i] = entropy(text)
		case "num_special":
			vec[i] = float64(special)
		case "special_ratio":
			vec[i] = float64(special) / float64(textLen+1)
		case "longest_special_seq":
			vec[i] = float64(longestSpecialRun(text))
		case "decode_layer_count":
			vec[i] = float64(layers)
		case "decode_len_delta":
			vec[i] = math.Abs(float64(utf8.RuneCountInString(decURL.Text+" "+decBody.Text)) -
				float64(utf8.RuneCountInString(rawCombined)))
		case "token_count":
			vec[i] = float64(len(strings.Fields(text)))
		case "nonprintable_ratio":
			vec[i] = nonprintableRatio(text)
		case "truncated":
			if urlCut || bodyCut {
				vec[i] = 1
			}
		default:
			vec[i] = float64(counts[name])
		}
	}
	return vec
}

// truncate cuts s to at most cap bytes on a rune boundary.
func truncate(s string, capBytes int) (string, bool) {
	if len(s) <= capBytes {
		return s, false
	}
	cut := capBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}

// entropy is the Shannon entropy of the rune distribution, in bits. High
// values indicate encoded or compressed payloads.
func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	var ent float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		ent -= p * math.Log2(p)
	}
	return ent
}

func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

func countSpecial(s string) int {
	n := 0
	for _, r := range s {
		if isSpecial(r) {
			n++
		}
	}
	return n
}

func longestSpecialRun(s string) int {
	cur, max := 0, 0
	for _, r := range s {
		if isSpecial(r) {
			cur++
			if cur > max {
				max = cur
			}
		} else {
			cur = 0
		}
	}
	return max
}

func nonprintableRatio(s string) float64 {
	total, bad := 0, 0
	for _, r := range s {
		total++
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			bad++
		}
	}
	return float64(bad) / float64(total+1)
}
