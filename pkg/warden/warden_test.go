package warden

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassify(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	tests := []struct {
		name string
		url  string
		body string
		want string
	}{
		{"sqli", "/login?id=1' OR 1=1--", "", "SQLi"},
		{"xss", "/search?q=<script>alert(1)</script>", "", "XSS"},
		{"benign", "/", "hello world", "Benign"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := w.Classify(tt.url, tt.body)
			if string(v.Label) != tt.want {
				t.Fatalf("label = %s (score %d), want %s", v.Label, v.SeverityScore, tt.want)
			}
			if v.Confidence < 0 || v.Confidence > 1 {
				t.Fatalf("confidence out of range: %v", v.Confidence)
			}
		})
	}
}

func TestTriageRecord(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	v := w.TriageRecord(Record{"url": "/login?id=1' or 1=1--", "body": "", "ip": "1.2.3.4"})
	if string(v.Label) != "SQLi" {
		t.Fatalf("label = %s", v.Label)
	}
	if v.SourceIP != "1.2.3.4" {
		t.Fatalf("SourceIP = %q", v.SourceIP)
	}

	// A record missing its payload fields still yields a verdict.
	v = w.TriageRecord(Record{"message": "malformed"})
	if !v.Degraded {
		t.Fatal("broken record not flagged degraded")
	}
}

func TestConcurrentUse(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				w.Classify("/login?id=1' or 1=1--", "")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestWithConfigFileErrors(t *testing.T) {
	if _, err := New(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))); err == nil {
		t.Fatal("missing config file not reported")
	}
}

func TestUnknownScorerKindRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte("scorer:\n  kind: quantum\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(WithConfigFile(path)); err == nil {
		t.Fatal("unknown scorer kind accepted")
	}
}

func TestWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte("decode:\n  max_layers: 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := New(WithConfigFile(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	// Three encode layers with a cap of two: the innermost survives, so the
	// payload is still encoded and the tag detector cannot fire.
	v := w.Classify("/q?x=%25253Cscript%25253E", "")
	if string(v.Label) == "XSS" {
		t.Fatal("decode cap from the config file not applied")
	}
}

func TestWithDecodeLimits(t *testing.T) {
	w, err := New(WithDecodeLimits(1, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	v := w.Classify("/q?x=%253Cscript%253Ealert(1)%253C%252Fscript%253E", "")
	if string(v.Label) == "XSS" {
		t.Fatal("single-layer cap still recovered a double-encoded payload")
	}
}
