package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	// No config.yaml in the working directory.
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty for defaults", resolved)
	}
	if cfg.Server.Port != 8080 || cfg.Search.DefaultTopK != 5 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_UsesCwdConfigWhenPresent(t *testing.T) {
	dir := t.TempDir()
	content := `
debug: true
server:
  port: 9100
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != defaultConfigPath {
		t.Errorf("resolved = %q, want %q", resolved, defaultConfigPath)
	}
	if !cfg.Debug || cfg.Server.Port != 9100 {
		t.Errorf("config not loaded: %+v", cfg)
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9200\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoadConfig_ExplicitMissingPathFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("explicit missing config path must fail")
	}
}
