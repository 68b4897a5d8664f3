package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRuleOverridesEmptyPathReturnsNil(t *testing.T) {
	overrides, err := loadRuleOverrides("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overrides != nil {
		t.Fatalf("overrides = %v, want nil for an empty path", overrides)
	}
}

func TestLoadRuleOverridesParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
volume:
  min_age_days: 14
  enabled: true
instance:
  detect_idle: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	overrides, err := loadRuleOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overrides["volume"]["min_age_days"] != 14 {
		t.Fatalf("volume.min_age_days = %v, want 14", overrides["volume"]["min_age_days"])
	}
	if overrides["instance"]["detect_idle"] != false {
		t.Fatalf("instance.detect_idle = %v, want false", overrides["instance"]["detect_idle"])
	}
}

func TestLoadRuleOverridesMissingFileErrors(t *testing.T) {
	_, err := loadRuleOverrides(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing rules file")
	}
}

func TestLoadRuleOverridesInvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := loadRuleOverrides(path)
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
