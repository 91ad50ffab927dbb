// Package patterns holds the attack-pattern catalogue: a fixed, ordered table
// of named detectors, each turning decoded payload text into an integer
// count. The catalogue is data compiled at startup, not a type hierarchy, so
// tuning a detector never means touching engine code.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Category groups detectors by the attack family they describe.
type Category string

const (
	CategorySQL  Category = "sql"
	CategoryXSS  Category = "xss"
	CategoryCmd  Category = "cmd"
	CategoryAuth Category = "auth"
	CategoryObfs Category = "obfuscation"
)

// MatcherKind selects how a matcher scores text.
type MatcherKind string

const (
	// KindSubstring sums occurrence counts of every token.
	KindSubstring MatcherKind = "substring"
	// KindRegex counts non-overlapping matches of a pattern.
	KindRegex MatcherKind = "regex"
	// KindPresent adds the weight once per token that appears at all, or
	// once if the pattern matches when no tokens are given.
	KindPresent MatcherKind = "present"
	// KindAnyOf adds the weight once if any token appears.
	KindAnyOf MatcherKind = "anyof"
	// KindCooccur adds the weight once if the pattern matches and any token
	// also appears. Used for signals that are only meaningful in context,
	// e.g. a unicode-escaped quote next to SQL keywords.
	KindCooccur MatcherKind = "cooccur"
)

// MatcherSpec is the data form of one scoring rule inside a detector.
type MatcherSpec struct {
	Kind    MatcherKind `yaml:"kind"`
	Tokens  []string    `yaml:"tokens,omitempty"`
	Pattern string      `yaml:"pattern,omitempty"`
	Weight  int         `yaml:"weight,omitempty"` // defaults to 1
}

// Spec is the data form of one named detector.
type Spec struct {
	Name     string        `yaml:"name"`
	Category Category      `yaml:"category"`
	Matchers []MatcherSpec `yaml:"matchers"`
}

type matcher struct {
	kind   MatcherKind
	tokens []string
	re     *regexp.Regexp
	weight int
}

// Detector is a compiled, re-entrant detector. Count is pure: same input,
// same result.
type Detector struct {
	Name     string
	Category Category
	matchers []matcher
}

// Count scores the given decoded, lowercased text.
func (d *Detector) Count(text string) int {
	total := 0
	for _, m := range d.matchers {
		switch m.kind {
		case KindSubstring:
			for _, tok := range m.tokens {
				total += strings.Count(text, tok) * m.weight
			}
		case KindRegex:
			total += len(m.re.FindAllStringIndex(text, -1)) * m.weight
		case KindPresent:
			if m.re != nil {
				if m.re.MatchString(text) {
					total += m.weight
				}
				break
			}
			for _, tok := range m.tokens {
				if strings.Contains(text, tok) {
					total += m.weight
				}
			}
		case KindAnyOf:
			for _, tok := range m.tokens {
				if strings.Contains(text, tok) {
					total += m.weight
					break
				}
			}
		case KindCooccur:
			if m.re.MatchString(text) {
				for _, tok := range m.tokens {
					if strings.Contains(text, tok) {
						total += m.weight
						break
					}
				}
			}
		}
	}
	return total
}

// Catalogue is the compiled, ordered detector table. Immutable after Compile;
// safe for unrestricted concurrent reads.
type Catalogue struct {
	detectors []Detector
	byName    map[string]int
}

// Compile turns detector specs into a Catalogue, rejecting duplicate names,
// empty detectors, and invalid regular expressions.
func Compile(specs []Spec) (*Catalogue, error) {
	c := &Catalogue{byName: make(map[string]int, len(specs))}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("patterns: detector with empty name")
		}
		if _, dup := c.byName[spec.Name]; dup {
			return nil, fmt.Errorf("patterns: duplicate detector %q", spec.Name)
		}
		if len(spec.Matchers) == 0 {
			return nil, fmt.Errorf("patterns: detector %q has no matchers", spec.Name)
		}

		det := Detector{Name: spec.Name, Category: spec.Category}
		for i, ms := range spec.Matchers {
			m, err := compileMatcher(ms)
			if err != nil {
				return nil, fmt.Errorf("patterns: detector %q matcher %d: %w", spec.Name, i, err)
			}
			det.matchers = append(det.matchers, m)
		}

		c.byName[spec.Name] = len(c.detectors)
		c.detectors = append(c.detectors, det)
	}
	return c, nil
}

func compileMatcher(ms MatcherSpec) (matcher, error) {
	m := matcher{kind: ms.Kind, tokens: ms.Tokens, weight: ms.Weight}
	if m.weight == 0 {
		m.weight = 1
	}

	switch ms.Kind {
	case KindSubstring, KindAnyOf:
		if len(ms.Tokens) == 0 {
			return matcher{}, fmt.Errorf("%s matcher requires tokens", ms.Kind)
		}
	case KindPresent:
		if len(ms.Tokens) == 0 && ms.Pattern == "" {
			return matcher{}, fmt.Errorf("present matcher requires tokens or a pattern")
		}
	case KindRegex:
		if ms.Pattern == "" {
			return matcher{}, fmt.Errorf("regex matcher requires a pattern")
		}
	case KindCooccur:
		if ms.Pattern == "" || len(ms.Tokens) == 0 {
			return matcher{}, fmt.Errorf("cooccur matcher requires a pattern and tokens")
		}
	default:
		return matcher{}, fmt.Errorf("unknown matcher kind %q", ms.Kind)
	}

	if ms.Pattern != "" {
		re, err := regexp.Compile(ms.Pattern)
		if err != nil {
			return matcher{}, fmt.Errorf("compile pattern: %w", err)
		}
		m.re = re
	}
	return m, nil
}

// Detectors returns the catalogue in its fixed order.
func (c *Catalogue) Detectors() []Detector {
	return c.detectors
}

// Lookup returns the detector with the given name.
func (c *Catalogue) Lookup(name string) (*Detector, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return &c.detectors[idx], true
}

// CountAll runs every detector over the text and returns counts keyed by
// detector name.
func (c *Catalogue) CountAll(text string) map[string]int {
	counts := make(map[string]int, len(c.detectors))
	for i := range c.detectors {
		counts[c.detectors[i].Name] = c.detectors[i].Count(text)
	}
	return counts
}
