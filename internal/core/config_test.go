package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 9090
logLevel: debug
database:
  type: sqlite
  connectionString: ":memory:"
solver:
  model: gemini-1.5-pro
  timeout: 30s
maxUploadBytes: 1048576
historyLimit: 5
commands:
  - name: PngConverterCommand
  - name: FitCommand
    width: 400
    height: 400
  - name: JpegConverterCommand
    quality: 75
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", config.Port)
	}
	if config.Database.Type != "sqlite" || config.Database.ConnectionString != ":memory:" {
		t.Errorf("Unexpected database config %+v", config.Database)
	}
	if config.Solver.Model != "gemini-1.5-pro" || config.Solver.Timeout != 30*time.Second {
		t.Errorf("Unexpected solver config %+v", config.Solver)
	}
	if config.Solver.APIKeyEnv != DefaultAPIKeyEnv {
		t.Errorf("Expected default api key env, got %q", config.Solver.APIKeyEnv)
	}
	if config.MaxUploadBytes != 1048576 || config.HistoryLimit != 5 {
		t.Errorf("Unexpected limits %d %d", config.MaxUploadBytes, config.HistoryLimit)
	}

	cmds := config.CommandConfigs()
	if len(cmds) != 3 {
		t.Fatalf("Expected 3 commands, got %d", len(cmds))
	}
	if cmds[1].Name != "FitCommand" || cmds[1].Params["width"] != 400 {
		t.Errorf("Unexpected fit command %+v", cmds[1])
	}
	if _, ok := cmds[1].Params["name"]; ok {
		t.Error("Expected name not to leak into params")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults, got error %v", err)
	}
	if config.Port != DefaultPort {
		t.Errorf("Expected default port, got %d", config.Port)
	}
	if config.Database.Type != "memory" {
		t.Errorf("Expected memory database, got %q", config.Database.Type)
	}
	if config.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("Expected 5 MiB upload limit, got %d", config.MaxUploadBytes)
	}
	if config.Solver.Timeout != 60*time.Second {
		t.Errorf("Expected 60s timeout, got %s", config.Solver.Timeout)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "port: [unclosed")
	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown database": "database:\n  type: mongo\n",
		"empty name":       "commands:\n  - width: 10\n",
		"duplicate name":   "commands:\n  - name: FitCommand\n  - name: FitCommand\n",
		"negative history": "historyLimit: -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, content)); err == nil {
				t.Errorf("Expected error for %s", name)
			}
		})
	}
}

func TestServiceConfig_APIKey(t *testing.T) {
	t.Setenv("GOSOLVE_TEST_KEY", "secret")
	config := DefaultConfig()
	config.Solver.APIKeyEnv = "GOSOLVE_TEST_KEY"
	if config.APIKey() != "secret" {
		t.Errorf("Expected key from environment, got %q", config.APIKey())
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("DEBUG").String() != "DEBUG" {
		t.Error("Expected debug level")
	}
	if parseLevel("nonsense").String() != "INFO" {
		t.Error("Expected info as fallback")
	}
}
