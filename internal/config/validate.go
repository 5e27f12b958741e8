package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return errors.New("http.timeout_seconds must not be negative")
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.ServerURL == "" {
		return errors.New("server_url must be set (or export DARKROOM_SERVER)")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url must be an http or https URL, got %q", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server_url has no host: %q", c.ServerURL)
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.ResizeDebounceMS < 0 {
		return errors.New("preview.resize_debounce_ms must not be negative")
	}
	if c.Preview.SettingsDebounceMS < 0 {
		return errors.New("preview.settings_debounce_ms must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json; got %q", c.Logging.Format)
	}
	return nil
}
