package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"darkroom/internal/config"
)

func TestLoadDefaultConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DARKROOM_SERVER", "")
	t.Setenv("DARKROOM_LOG_LEVEL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "darkroom", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if cfg.ServerURL != "http://localhost:39639" {
		t.Fatalf("unexpected server url: %q", cfg.ServerURL)
	}
	if cfg.DownloadDir != filepath.Join(tempHome, "Pictures", "darkroom") {
		t.Fatalf("unexpected download dir: %q", cfg.DownloadDir)
	}
	if cfg.ResizeDebounce() != 500*time.Millisecond || cfg.SettingsDebounce() != 0 {
		t.Fatalf("unexpected debounce: %v %v", cfg.ResizeDebounce(), cfg.SettingsDebounce())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "darkroom.toml")
	content := `
server_url = "http://photos.local:8080/"
download_dir = "/tmp/exports"

[preview]
resize_debounce_ms = 250

[logging]
level = "WARNING"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DARKROOM_SERVER", "")
	t.Setenv("DARKROOM_LOG_LEVEL", "")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved %q exists %v", resolved, exists)
	}
	if cfg.ServerURL != "http://photos.local:8080" {
		t.Fatalf("server url not trimmed: %q", cfg.ServerURL)
	}
	if cfg.DownloadDir != "/tmp/exports" || cfg.ResizeDebounce() != 250*time.Millisecond {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}

	t.Setenv("DARKROOM_SERVER", "https://editor.example")
	t.Setenv("DARKROOM_LOG_LEVEL", "debug")
	cfg, _, _, err = config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "https://editor.example" || cfg.Logging.Level != "debug" {
		t.Fatalf("env overrides ignored: %q %q", cfg.ServerURL, cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DARKROOM_SERVER", "")
	t.Setenv("DARKROOM_LOG_LEVEL", "")

	cases := map[string]string{
		"scheme":   `server_url = "ftp://host"`,
		"level":    "[logging]\nlevel = \"loud\"",
		"format":   "[logging]\nformat = \"xml\"",
		"debounce": "[preview]\nresize_debounce_ms = -1",
		"unknown":  `colour = "red"`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DARKROOM_SERVER", "")
	t.Setenv("DARKROOM_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if !strings.Contains(string(data), "server_url") {
		t.Fatal("sample lacks server_url")
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample does not load: exists %v err %v", exists, err)
	}
}
