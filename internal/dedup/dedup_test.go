package dedup

import (
	"testing"
	"time"

	"github.com/crimson-sun/warden/internal/model"
)

func v(ip, url string, label model.Label, at time.Time, score int) model.Verdict {
	return model.Verdict{
		Timestamp: at, SourceIP: ip, URL: url, Label: label, SeverityScore: score,
	}
}

func TestCollapseMergesWithinWindow(t *testing.T) {
	s := New(Config{Window: 5 * time.Second})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	in := []model.Verdict{
		v("1.1.1.1", "/login", model.LabelSQLi, base, 60),
		v("1.1.1.1", "/login", model.LabelSQLi, base.Add(time.Second), 60),
		v("1.1.1.1", "/login", model.LabelSQLi, base.Add(2*time.Second), 60),
		v("2.2.2.2", "/login", model.LabelSQLi, base.Add(time.Second), 55),
	}
	out := s.Collapse(in)
	if len(out) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(out))
	}
	if out[0].Repeats != 3 {
		t.Fatalf("Repeats = %d, want 3", out[0].Repeats)
	}
	if out[1].SourceIP != "2.2.2.2" || out[1].Repeats != 0 {
		t.Fatalf("second group = %+v", out[1])
	}
}

func TestCollapseWindowLapse(t *testing.T) {
	s := New(Config{Window: 5 * time.Second})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	in := []model.Verdict{
		v("1.1.1.1", "/x", model.LabelXSS, base, 50),
		v("1.1.1.1", "/x", model.LabelXSS, base.Add(10*time.Second), 50),
	}
	out := s.Collapse(in)
	if len(out) != 2 {
		t.Fatalf("got %d verdicts, want 2 (window lapsed)", len(out))
	}
}

func TestCollapseKeepsHighestSeverity(t *testing.T) {
	s := New(Config{})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	in := []model.Verdict{
		{Timestamp: base, SourceIP: "1.1.1.1", URL: "/x", Label: model.LabelSQLi,
			SeverityScore: 60, SeverityLevel: model.SeverityHigh},
		{Timestamp: base.Add(time.Second), SourceIP: "1.1.1.1", URL: "/x", Label: model.LabelSQLi,
			SeverityScore: 90, SeverityLevel: model.SeverityCritical},
	}
	out := s.Collapse(in)
	if len(out) != 1 {
		t.Fatalf("got %d verdicts, want 1", len(out))
	}
	if out[0].SeverityScore != 90 || out[0].SeverityLevel != model.SeverityCritical {
		t.Fatalf("merged verdict kept %d/%s, want the higher severity", out[0].SeverityScore, out[0].SeverityLevel)
	}
}

func TestCollapseDistinguishesLabels(t *testing.T) {
	s := New(Config{})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	in := []model.Verdict{
		v("1.1.1.1", "/x", model.LabelSQLi, base, 60),
		v("1.1.1.1", "/x", model.LabelXSS, base, 60),
	}
	if out := s.Collapse(in); len(out) != 2 {
		t.Fatalf("got %d verdicts, want 2 (different labels)", len(out))
	}
}

func TestCollapseEmpty(t *testing.T) {
	if out := New(Config{}).Collapse(nil); out != nil {
		t.Fatalf("got %v for empty input", out)
	}
}

func TestCollapsePreservesOrder(t *testing.T) {
	s := New(Config{})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	in := []model.Verdict{
		v("3.3.3.3", "/c", model.LabelBenign, base, 0),
		v("1.1.1.1", "/a", model.LabelSQLi, base, 60),
		v("2.2.2.2", "/b", model.LabelXSS, base, 50),
		v("1.1.1.1", "/a", model.LabelSQLi, base.Add(time.Second), 60),
	}
	out := s.Collapse(in)
	if len(out) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(out))
	}
	if out[0].URL != "/c" || out[1].URL != "/a" || out[2].URL != "/b" {
		t.Fatalf("first-occurrence order lost: %s %s %s", out[0].URL, out[1].URL, out[2].URL)
	}
}
