// Package config provides YAML-based configuration loading for Roundhouse.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database backends.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Config is the top-level Roundhouse configuration, loaded from roundhouse.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Proposer ProposerConfig `yaml:"proposer"`
	Roster   RosterConfig   `yaml:"roster"`
	Sync     SyncConfig     `yaml:"sync"`
	Notify   NotifyConfig   `yaml:"notify"`
	GitHub   GitHubConfig   `yaml:"github"`
}

// DatabaseConfig selects and parameterizes the storage backend.
type DatabaseConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ProposerConfig controls the proposal generator client.
type ProposerConfig struct {
	Kind           string `yaml:"kind"`
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Workers        int    `yaml:"workers"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RosterConfig points at the CSV sources for developers and tickets.
type RosterConfig struct {
	DevelopersCSV string `yaml:"developers_csv"`
	TicketsCSV    string `yaml:"tickets_csv"`
}

// SyncConfig schedules periodic roster re-sync while serving.
type SyncConfig struct {
	Schedule string `yaml:"schedule"`
}

// NotifyConfig holds optional Slack and Discord notification targets.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// GitHubConfig enables ticket import from a GitHub repository's issues.
type GitHubConfig struct {
	Repo     string `yaml:"repo"`
	TokenEnv string `yaml:"token_env"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a ready-to-use configuration without reading any file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Backend == "" {
		c.Database.Backend = BackendSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = "roundhouse.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "roundhouse"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Proposer.Kind == "" {
		c.Proposer.Kind = "openai"
	}
	if c.Proposer.Model == "" {
		c.Proposer.Model = "gpt-4o-mini"
	}
	if c.Proposer.APIKeyEnv == "" {
		c.Proposer.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Proposer.Workers == 0 {
		c.Proposer.Workers = 5
	}
	if c.Proposer.TimeoutSeconds == 0 {
		c.Proposer.TimeoutSeconds = 120
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Backend {
	case BackendSQLite, BackendMySQL:
	default:
		errs = append(errs, fmt.Sprintf("database.backend must be %q or %q", BackendSQLite, BackendMySQL))
	}
	switch c.Proposer.Kind {
	case "openai", "balance":
	default:
		errs = append(errs, `proposer.kind must be "openai" or "balance"`)
	}
	if c.Proposer.Workers < 1 {
		errs = append(errs, "proposer.workers must be at least 1")
	}
	if c.GitHub.Repo != "" && !strings.Contains(c.GitHub.Repo, "/") {
		errs = append(errs, `github.repo must be in "owner/name" form`)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
