package model

import "time"

// Label is an attack class assigned by the scorer.
type Label string

const (
	LabelBenign     Label = "Benign"
	LabelSQLi       Label = "SQLi"
	LabelXSS        Label = "XSS"
	LabelCmdInject  Label = "CommandInjection"
	LabelBrokenAuth Label = "BrokenAuth"
)

// Labels returns all attack classes in scorer output order. The order is part
// of the model contract: output index i of the classifier corresponds to
// Labels()[i].
func Labels() []Label {
	return []Label{LabelBenign, LabelSQLi, LabelXSS, LabelCmdInject, LabelBrokenAuth}
}

// Human returns the display name used in reports.
func (l Label) Human() string {
	switch l {
	case LabelSQLi:
		return "SQL Injection"
	case LabelXSS:
		return "Cross-Site Scripting"
	case LabelCmdInject:
		return "Command Injection"
	case LabelBrokenAuth:
		return "Broken Authentication"
	default:
		return "Benign"
	}
}

// SeverityLevel is the discrete triage level derived from the severity score.
type SeverityLevel string

const (
	SeveritySafe     SeverityLevel = "SAFE"
	SeverityLow      SeverityLevel = "LOW"
	SeverityMedium   SeverityLevel = "MEDIUM"
	SeverityHigh     SeverityLevel = "HIGH"
	SeverityCritical SeverityLevel = "CRITICAL"
)

// Signal is one named feature contribution recorded on a verdict for
// explainability.
type Signal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Verdict is the immutable result of triaging one record. Exactly one is
// produced per input record; malformed input yields a degraded verdict, never
// an omission.
type Verdict struct {
	Timestamp time.Time `json:"time"`
	SourceIP  string    `json:"ip"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Body      string    `json:"body,omitempty"`

	Label         Label         `json:"attack"`
	Confidence    float64       `json:"confidence"`          // [0,1]
	SeverityScore int           `json:"severity"`            // [0,100]
	SeverityLevel SeverityLevel `json:"level"`
	Signals       []Signal      `json:"signals,omitempty"`   // top contributors, schema order on ties
	Degraded      bool          `json:"degraded,omitempty"`  // raw record needed default substitution
	Repeats       int           `json:"repeats,omitempty"`   // >1 when alert dedup merged identical verdicts
}
