package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Thresholds.P1CriticalCount != 100 {
		t.Fatalf("expected P1 threshold 100, got %d", cfg.Thresholds.P1CriticalCount)
	}
	if cfg.Thresholds.BurstWindow != 5*time.Minute {
		t.Fatalf("expected 5m burst window, got %v", cfg.Thresholds.BurstWindow)
	}
	if cfg.Thresholds.PredictionCeiling != 0.60 {
		t.Fatalf("expected prediction ceiling 0.60, got %v", cfg.Thresholds.PredictionCeiling)
	}
	if len(cfg.Resources.SevereCodes) == 0 {
		t.Fatalf("expected default severe codes")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`server:
  address: ":9090"
thresholds:
  p1CriticalCount: 50
  burstWindow: 2m
sessions:
  capacity: 16
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("expected address :9090, got %s", cfg.Server.Address)
	}
	if cfg.Thresholds.P1CriticalCount != 50 {
		t.Fatalf("expected P1 threshold 50, got %d", cfg.Thresholds.P1CriticalCount)
	}
	if cfg.Thresholds.BurstWindow != 2*time.Minute {
		t.Fatalf("expected 2m burst window, got %v", cfg.Thresholds.BurstWindow)
	}
	if cfg.Sessions.Capacity != 16 {
		t.Fatalf("expected capacity 16, got %d", cfg.Sessions.Capacity)
	}
	// unspecified keys keep defaults
	if cfg.Thresholds.P2VolumeCount != 500 {
		t.Fatalf("expected default P2 volume 500, got %d", cfg.Thresholds.P2VolumeCount)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("non-existent.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRIAGE_P1_CRITICAL_THRESHOLD", "25")
	t.Setenv("TRIAGE_PREDICTION_CEILING", "0.5")
	t.Setenv("TRIAGE_LEARNING_POSTGRES_URL", "postgres://localhost/triage")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Thresholds.P1CriticalCount != 25 {
		t.Fatalf("expected env override 25, got %d", cfg.Thresholds.P1CriticalCount)
	}
	if cfg.Thresholds.PredictionCeiling != 0.5 {
		t.Fatalf("expected env ceiling 0.5, got %v", cfg.Thresholds.PredictionCeiling)
	}
	if !cfg.Learning.Enabled {
		t.Fatalf("expected learning enabled when postgres URL set")
	}
}

func TestValidateRejectsBadCeiling(t *testing.T) {
	t.Setenv("TRIAGE_PREDICTION_CEILING", "1.5")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error for ceiling > 1")
	}
}
