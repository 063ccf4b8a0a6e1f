package config

import (
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() {
	c.Paths.DataDir = expandPath(c.Paths.DataDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}

	c.Generation.BaseURL = strings.TrimRight(strings.TrimSpace(c.Generation.BaseURL), "/")
	c.Generation.APIKey = strings.TrimSpace(c.Generation.APIKey)
	c.Generation.Model = strings.TrimSpace(c.Generation.Model)
	if c.Generation.RequestTimeout <= 0 {
		c.Generation.RequestTimeout = defaultGenerationTimeoutSeconds
	}

	if c.Repair.InactivityTimeout <= 0 {
		c.Repair.InactivityTimeout = defaultRepairInactivitySeconds
	}
	if c.Repair.ArchivedRunLimit <= 0 {
		c.Repair.ArchivedRunLimit = defaultArchivedRunLimit
	}
}

func expandPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			if trimmed == "~" {
				return home
			}
			return filepath.Join(home, trimmed[2:])
		}
	}
	return filepath.Clean(trimmed)
}
