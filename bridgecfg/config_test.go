package bridgecfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadProviderOptions(t *testing.T) {
	path := writeTemp(t, "provider.yaml", `
name: demo
handle_ttl: 10m
sweep_interval: 30s
allowed_origins:
  - https://trusted.example
target_origin: https://trusted.example
`)
	opts, err := LoadProviderOptions(path)
	if err != nil {
		t.Fatalf("LoadProviderOptions() error = %v", err)
	}
	if opts.Name != "demo" {
		t.Errorf("Name = %q, want demo", opts.Name)
	}
	if opts.HandleTTL != 10*time.Minute {
		t.Errorf("HandleTTL = %v, want 10m", opts.HandleTTL)
	}
	if opts.SweepInterval != 30*time.Second {
		t.Errorf("SweepInterval = %v, want 30s", opts.SweepInterval)
	}
	if opts.TargetOrigin != "https://trusted.example" {
		t.Errorf("TargetOrigin = %q, want https://trusted.example", opts.TargetOrigin)
	}
}

func TestLoadConsumerOptionsAbsentTimeoutStaysZero(t *testing.T) {
	path := writeTemp(t, "consumer.yaml", `
hide_structure: true
`)
	opts, err := LoadConsumerOptions(path)
	if err != nil {
		t.Fatalf("LoadConsumerOptions() error = %v", err)
	}
	if opts.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0 (an absent timeout field means reject-immediately)", opts.Timeout)
	}
	if !opts.HideStructure {
		t.Error("HideStructure should be true")
	}
}

func TestLoadConsumerOptionsExplicitTimeout(t *testing.T) {
	path := writeTemp(t, "consumer.yaml", `
timeout: 5s
gc_sweep_interval: 1m
release_on_page_hide: all
`)
	opts, err := LoadConsumerOptions(path)
	if err != nil {
		t.Fatalf("LoadConsumerOptions() error = %v", err)
	}
	if opts.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", opts.Timeout)
	}
	if opts.GCSweepInterval != time.Minute {
		t.Errorf("GCSweepInterval = %v, want 1m", opts.GCSweepInterval)
	}
	if string(opts.ReleaseOnPageHide) != "all" {
		t.Errorf("ReleaseOnPageHide = %q, want all", opts.ReleaseOnPageHide)
	}
}

func TestLoadProviderOptionsBadDurationErrors(t *testing.T) {
	path := writeTemp(t, "provider.yaml", `
name: demo
handle_ttl: not-a-duration
`)
	if _, err := LoadProviderOptions(path); err == nil {
		t.Error("LoadProviderOptions() should error on an unparseable duration")
	}
}

func TestLoadProviderOptionsMissingFile(t *testing.T) {
	if _, err := LoadProviderOptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadProviderOptions() should error when the file is missing")
	}
}
