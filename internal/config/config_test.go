package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path: got %q, want %q", resolved, path)
	}
	if cfg.Paths.APIBind != defaultAPIBind {
		t.Fatalf("api bind: got %q", cfg.Paths.APIBind)
	}
	if cfg.Generation.Model != defaultGenerationModel {
		t.Fatalf("model: got %q", cfg.Generation.Model)
	}
	if cfg.Repair.ArchivedRunLimit != defaultArchivedRunLimit {
		t.Fatalf("archived run limit: got %d", cfg.Repair.ArchivedRunLimit)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
data_dir = "/tmp/lectern-test"
log_dir = "/tmp/lectern-test/logs"
api_bind = "127.0.0.1:9999"

[logging]
level = "debug"
format = "json"

[generation]
model = "gpt-4o"
request_timeout = 120

[repair]
inactivity_timeout = 30
archived_run_limit = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9999" {
		t.Fatalf("api bind: got %q", cfg.Paths.APIBind)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging: got %+v", cfg.Logging)
	}
	if cfg.Generation.Model != "gpt-4o" {
		t.Fatalf("model: got %q", cfg.Generation.Model)
	}
	if cfg.GenerationTimeout() != 120*time.Second {
		t.Fatalf("generation timeout: got %s", cfg.GenerationTimeout())
	}
	if cfg.RepairInactivityTimeout() != 30*time.Second {
		t.Fatalf("inactivity timeout: got %s", cfg.RepairInactivityTimeout())
	}
	if cfg.Repair.ArchivedRunLimit != 5 {
		t.Fatalf("archived run limit: got %d", cfg.Repair.ArchivedRunLimit)
	}
	// Unset fields keep their defaults.
	if cfg.Generation.BaseURL != defaultGenerationBaseURL {
		t.Fatalf("base url: got %q", cfg.Generation.BaseURL)
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("LECTERN_GENERATION_API_KEY", "env-secret")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[generation]\napi_key = \"file-secret\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Generation.APIKey != "env-secret" {
		t.Fatalf("api key: got %q", cfg.Generation.APIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad log level", "[logging]\nlevel = \"verbose\"\n"},
		{"bad log format", "[logging]\nformat = \"xml\"\n"},
		{"blank data dir", "[paths]\ndata_dir = \" \"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got := expandPath("~/lectern/data")
	if got != filepath.Join(home, "lectern", "data") {
		t.Fatalf("expandPath: got %q", got)
	}
	if expandPath("/absolute") != "/absolute" {
		t.Fatal("absolute paths must pass through")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}

	// The sample must itself be loadable.
	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if cfg.Paths.APIBind == "" {
		t.Fatal("sample config missing api bind")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/var/lib/lectern"
	if got := cfg.DatabasePath(); got != "/var/lib/lectern/lectern.db" {
		t.Fatalf("database path: got %q", got)
	}
	if got := cfg.SocketPath(); got != "/var/lib/lectern/lecternd.sock" {
		t.Fatalf("socket path: got %q", got)
	}
	if got := cfg.LockPath(); !strings.HasPrefix(got, "/var/lib/lectern/") {
		t.Fatalf("lock path: got %q", got)
	}
}
