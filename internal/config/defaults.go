package config

import "time"

const (
	defaultDataDir                  = "~/.local/share/lectern"
	defaultLogDir                   = "~/.local/share/lectern/logs"
	defaultAPIBind                  = "127.0.0.1:7519"
	defaultLogLevel                 = "info"
	defaultLogFormat                = "console"
	defaultGenerationBaseURL        = "https://api.openai.com/v1"
	defaultGenerationModel          = "gpt-4o-mini"
	defaultGenerationTimeoutSeconds = 300
	defaultRepairInactivitySeconds  = 600
	defaultArchivedRunLimit         = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Generation: Generation{
			BaseURL:        defaultGenerationBaseURL,
			Model:          defaultGenerationModel,
			RequestTimeout: defaultGenerationTimeoutSeconds,
		},
		Repair: Repair{
			InactivityTimeout: defaultRepairInactivitySeconds,
			ArchivedRunLimit:  defaultArchivedRunLimit,
		},
	}
}

// GenerationTimeout returns the per-phase request timeout as a duration.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.RequestTimeout) * time.Second
}

// RepairInactivityTimeout returns the watchdog timeout as a duration.
func (c *Config) RepairInactivityTimeout() time.Duration {
	return time.Duration(c.Repair.InactivityTimeout) * time.Second
}
