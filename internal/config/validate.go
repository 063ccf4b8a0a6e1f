package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateRepair(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.BaseURL == "" {
		return errors.New("generation.base_url must be set")
	}
	if c.Generation.Model == "" {
		return errors.New("generation.model must be set")
	}
	if c.Generation.RequestTimeout <= 0 {
		return errors.New("generation.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateRepair() error {
	if c.Repair.InactivityTimeout <= 0 {
		return errors.New("repair.inactivity_timeout must be positive")
	}
	return nil
}
