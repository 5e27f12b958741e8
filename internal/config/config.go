// Package config loads, normalizes and validates darkroom configuration.
//
// Defaults come from Default, a TOML file overrides them and the
// DARKROOM_SERVER and DARKROOM_LOG_LEVEL environment variables override the
// file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Preview tunes the preview coordinator.
type Preview struct {
	ResizeDebounceMS   int    `toml:"resize_debounce_ms"`
	SettingsDebounceMS int    `toml:"settings_debounce_ms"`
	Output             string `toml:"output"`
}

// HTTP contains transport settings.
type HTTP struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// UI selects how the user is alerted and asked.
type UI struct {
	// GUIAlerts shows native dialogs instead of log lines.
	GUIAlerts bool `toml:"gui_alerts"`
	// SaveDialog asks where to put exports.
	SaveDialog bool `toml:"save_dialog"`
	// AutoUpgrade answers yes when asked to upgrade an older process version.
	AutoUpgrade bool `toml:"auto_upgrade"`
}

// Config holds every knob of the CLI.
type Config struct {
	ServerURL   string  `toml:"server_url"`
	DownloadDir string  `toml:"download_dir"`
	Preview     Preview `toml:"preview"`
	HTTP        HTTP    `toml:"http"`
	Logging     Logging `toml:"logging"`
	UI          UI      `toml:"ui"`
}

// DefaultConfigPath returns the absolute path of the default configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/darkroom/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns the
// resolved path and whether a file existed there; defaults are used when none
// does.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("darkroom.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// ResizeDebounce is the preview resize debounce as a duration.
func (c *Config) ResizeDebounce() time.Duration {
	return time.Duration(c.Preview.ResizeDebounceMS) * time.Millisecond
}

// SettingsDebounce is the preview settings debounce as a duration.
func (c *Config) SettingsDebounce() time.Duration {
	return time.Duration(c.Preview.SettingsDebounceMS) * time.Millisecond
}

// Timeout is the HTTP client timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
