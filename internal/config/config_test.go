// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// useConfigDir points config loading at dir for the duration of the test.
func useConfigDir(t *testing.T, dir string) {
	t.Helper()
	SetConfigDirOverride(dir)
	t.Cleanup(func() {
		SetConfigDirOverride("")
		SetConfigFilePathOverride("")
	})
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	useConfigDir(t, dir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir: %v", err)
	}
	if got != dir {
		t.Errorf("ConfigDir = %q, want override %q", got, dir)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	useConfigDir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UI.Verbose {
		t.Error("default ui.verbose should be false")
	}
	if cfg.Update.Disabled {
		t.Error("default update.disabled should be false")
	}
	if cfg.Update.LockStaleMinutes != 0 || cfg.Update.RetentionHours != 0 {
		t.Errorf("default update tuning = %+v, want zeros", cfg.Update)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	useConfigDir(t, dir)
	writeConfig(t, dir, `
[ui]
verbose = true

[update]
disabled = true
lock_stale_minutes = 3
retention_hours = 48
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UI.Verbose {
		t.Error("ui.verbose not loaded from file")
	}
	if !cfg.Update.Disabled {
		t.Error("update.disabled not loaded from file")
	}
	if cfg.Update.LockStaleMinutes != 3 {
		t.Errorf("lock_stale_minutes = %d, want 3", cfg.Update.LockStaleMinutes)
	}
	if cfg.Update.RetentionHours != 48 {
		t.Errorf("retention_hours = %d, want 48", cfg.Update.RetentionHours)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	useConfigDir(t, t.TempDir())
	t.Setenv("PINION_UPDATE_DISABLED", "true")
	t.Setenv("PINION_UI_VERBOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Update.Disabled {
		t.Error("PINION_UPDATE_DISABLED did not take effect")
	}
	if !cfg.UI.Verbose {
		t.Error("PINION_UI_VERBOSE did not take effect")
	}
}

func TestLoadExplicitFilePathOverride(t *testing.T) {
	dir := t.TempDir()
	useConfigDir(t, dir) // registers cleanup for both overrides
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[ui]\nverbose = true\n"), 0o644); err != nil {
		t.Fatalf("writing custom config: %v", err)
	}
	SetConfigFilePathOverride(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UI.Verbose {
		t.Error("explicit config file was not honored")
	}
}

func TestLoadMalformedFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	useConfigDir(t, dir)
	writeConfig(t, dir, "this is not toml = = =")

	cfg, err := Load()
	if err == nil {
		t.Fatal("expected error for malformed config")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("err = %v, want reading-config wrapper", err)
	}
	if cfg == nil {
		t.Fatal("Load must always return a usable config")
	}
	if cfg.UI.Verbose || cfg.Update.Disabled {
		t.Errorf("fallback config = %+v, want zero values", cfg)
	}
}
