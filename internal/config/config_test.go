package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/crimson-sun/warden/internal/engine/features"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("shipped defaults do not validate: %v", err)
	}
	if cfg.Schema.Version != features.SchemaVersion {
		t.Fatalf("schema version = %q, want %q", cfg.Schema.Version, features.SchemaVersion)
	}
	if cfg.Scorer.Kind != ScorerStatic {
		t.Fatalf("default scorer = %q, want static", cfg.Scorer.Kind)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Schema.Features) != len(features.DefaultNames()) {
		t.Fatal("defaults not returned for empty path")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	body := `
decode:
  max_layers: 3
severity:
  benign_floor: 0.25
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Decode.MaxLayers != 3 {
		t.Errorf("max_layers = %d, want 3", cfg.Decode.MaxLayers)
	}
	if cfg.Severity.BenignFloor != 0.25 {
		t.Errorf("benign_floor = %v, want 0.25", cfg.Severity.BenignFloor)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Patterns) == 0 {
		t.Error("patterns lost during overlay")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("overlaid config invalid: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file not reported")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte("decode: [not a map"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unparseable yaml not reported")
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Schema.Version = ""
	cfg.Schema.Features = []string{"dup", "dup"}
	cfg.Scorer.Kind = "quantum"
	cfg.Decode.MaxLayers = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type %T, want *ValidationError", err)
	}
	if len(verr.Problems) < 4 {
		t.Fatalf("collected %d problems, want at least 4: %v", len(verr.Problems), verr.Problems)
	}
}

func TestValidateONNXRequiresModelPath(t *testing.T) {
	cfg := Default()
	cfg.Scorer.Kind = ScorerONNX

	err := cfg.Validate()
	if err == nil {
		t.Fatal("onnx scorer without model_path accepted")
	}

	cfg.Scorer.ModelPath = "model.onnx"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("onnx scorer with model_path rejected: %v", err)
	}
}
