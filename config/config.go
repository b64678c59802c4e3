// Package config loads the service configuration. Values come from an
// optional YAML file overridden by STORYAGENT_* environment variables, so
// containers can run without any file at all.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address for the chat endpoint.
	Addr string `mapstructure:"addr"`
}

// ModelConfig selects and tunes the model provider.
type ModelConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `mapstructure:"provider"`
	// Name overrides the provider's default model when set.
	Name string `mapstructure:"name"`
	// Temperature for generation calls.
	Temperature float64 `mapstructure:"temperature"`
}

// DatabaseConfig points at the domain database.
type DatabaseConfig struct {
	// DSN is a Postgres connection string.
	DSN string `mapstructure:"dsn"`
}

// RedisConfig points at the session checkpoint store. An empty URL falls back
// to the in-memory store.
type RedisConfig struct {
	URL string `mapstructure:"url"`
	// SessionTTLHours expires idle sessions; zero keeps them forever.
	SessionTTLHours int `mapstructure:"session_ttl_hours"`
}

// AgentConfig tunes the turn state machine.
type AgentConfig struct {
	// ConfidenceThreshold gates intent detection.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	// MaxModelCalls caps tool-loop model calls per turn.
	MaxModelCalls int `mapstructure:"max_model_calls"`
	// ErrorLoopThreshold is the error count that triggers history truncation.
	ErrorLoopThreshold int `mapstructure:"error_loop_threshold"`
	// RepeatWindow is how many trailing messages the recovery guard scans.
	RepeatWindow int `mapstructure:"repeat_window"`
	// SuggestionsFile points at a JSON suggestion catalogue replacing the
	// built-in one; empty keeps the built-in catalogue.
	SuggestionsFile string `mapstructure:"suggestions_file"`
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Model    ModelConfig    `mapstructure:"model"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Agent    AgentConfig    `mapstructure:"agent"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.name", "")
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.session_ttl_hours", 0)
	v.SetDefault("agent.confidence_threshold", 0.7)
	v.SetDefault("agent.max_model_calls", 8)
	v.SetDefault("agent.error_loop_threshold", 3)
	v.SetDefault("agent.repeat_window", 10)
	v.SetDefault("agent.suggestions_file", "")
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply; a missing file at an explicit
// path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("storyagent")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
