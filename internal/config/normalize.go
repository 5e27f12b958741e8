package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if v, ok := os.LookupEnv("DARKROOM_SERVER"); ok && strings.TrimSpace(v) != "" {
		c.ServerURL = v
	}
	if v, ok := os.LookupEnv("DARKROOM_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		c.Logging.Level = v
	}

	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")

	var err error
	if c.DownloadDir, err = expandPath(strings.TrimSpace(c.DownloadDir)); err != nil {
		return fmt.Errorf("download_dir: %w", err)
	}
	if c.Preview.Output, err = expandPath(strings.TrimSpace(c.Preview.Output)); err != nil {
		return fmt.Errorf("preview.output: %w", err)
	}

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
