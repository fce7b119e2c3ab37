package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jo-hoe/gosolve/internal/backend/commandstructure"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = 8080
	DefaultMaxUploadBytes = 5 << 20
	DefaultHistoryLimit   = 20
	DefaultAPIKeyEnv      = "GEMINI_API_KEY"
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Solver struct {
	Model string `yaml:"model"`
	// Name of the environment variable holding the API key
	APIKeyEnv string        `yaml:"apiKeyEnv"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ServiceConfig struct {
	Port           int             `yaml:"port"`
	LogLevel       string          `yaml:"logLevel"`
	Database       Database        `yaml:"database"`
	Solver         Solver          `yaml:"solver"`
	MaxUploadBytes int64           `yaml:"maxUploadBytes"`
	HistoryLimit   int             `yaml:"historyLimit"`
	Commands       []CommandConfig `yaml:"commands"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from the specified YAML file.
// A missing file yields the defaults.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Config: file not found; using defaults", "path", configPath)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// APIKey resolves the solver API key from the environment
func (c *ServiceConfig) APIKey() string {
	return os.Getenv(c.Solver.APIKeyEnv)
}

// CommandConfigs converts the configured pipeline into registry configs
func (c *ServiceConfig) CommandConfigs() []commandstructure.CommandConfig {
	configs := make([]commandstructure.CommandConfig, 0, len(c.Commands))
	for _, cmd := range c.Commands {
		configs = append(configs, commandstructure.CommandConfig{Name: cmd.Name, Params: cmd.Params})
	}
	return configs
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database.Type == "" {
		c.Database.Type = "memory"
	}
	if c.Solver.APIKeyEnv == "" {
		c.Solver.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Solver.Timeout == 0 {
		c.Solver.Timeout = 60 * time.Second
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
}

func (c *ServiceConfig) validate() error {
	switch c.Database.Type {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("maxUploadBytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("historyLimit must be positive, got %d", c.HistoryLimit)
	}
	if c.Solver.Timeout < 0 {
		return fmt.Errorf("solver timeout must be positive, got %s", c.Solver.Timeout)
	}
	return validateCommands(c.Commands)
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}

		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true
	}

	return nil
}
