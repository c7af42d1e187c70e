// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alcove Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	alcoveerr "github.com/alcove-dev/alcove/pkg/errors"
)

// Config is the top-level Alcove configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Index     IndexConfig     `mapstructure:"index"`
}

// ServerConfig controls how the HTTP API listens for connections.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// EngineConfig selects and tunes the chat generation backend.
type EngineConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	Endpoint    string  `mapstructure:"endpoint"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	Dimensions int    `mapstructure:"dimensions"`
}

// IndexConfig controls chunking and the chunk store backend.
type IndexConfig struct {
	Backend      string `mapstructure:"backend"`
	Path         string `mapstructure:"path"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	TopK         int    `mapstructure:"top_k"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix ALCOVE_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8417")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("engine.provider", "ollama")
	v.SetDefault("engine.model", "llama3.2")
	v.SetDefault("engine.temperature", 0.3)
	v.SetDefault("engine.max_tokens", 1024)
	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("index.backend", "memory")
	v.SetDefault("index.chunk_size", 500)
	v.SetDefault("index.chunk_overlap", 50)
	v.SetDefault("index.top_k", 4)

	// Environment
	v.SetEnvPrefix("ALCOVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, alcoveerr.Errorf(alcoveerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a
// slice of all validation errors found, collecting all issues rather
// than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateEngine()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateIndex()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	host, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	_ = host // host can be empty (e.g., ":8417"), which is valid
	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateEngine() []error {
	var errs []error

	validProviders := map[string]bool{"openai": true, "anthropic": true, "ollama": true}
	if !validProviders[c.Engine.Provider] {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: engine.provider must be one of [openai, anthropic, ollama], got %q",
			c.Engine.Provider,
		))
	}

	if (c.Engine.Provider == "openai" || c.Engine.Provider == "anthropic") && c.Engine.APIKey == "" {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: engine.api_key is required for provider %q",
			c.Engine.Provider,
		))
	}

	if c.Engine.Model == "" {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue, "config: engine.model must not be empty"))
	}

	if c.Engine.Temperature < 0 || c.Engine.Temperature > 2 {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: engine.temperature must be between 0 and 2, got %g",
			c.Engine.Temperature,
		))
	}

	if c.Engine.MaxTokens <= 0 {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: engine.max_tokens must be greater than 0, got %d",
			c.Engine.MaxTokens,
		))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	validProviders := map[string]bool{"openai": true, "ollama": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [openai, ollama], got %q",
			c.Embedding.Provider,
		))
	}

	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: embedding.api_key is required for provider \"openai\""))
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be greater than 0, got %d",
			c.Embedding.Dimensions,
		))
	}

	return errs
}

func (c *Config) validateIndex() []error {
	var errs []error

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if !validBackends[c.Index.Backend] {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: index.backend must be one of [memory, sqlite], got %q",
			c.Index.Backend,
		))
	}

	if c.Index.Backend == "sqlite" && c.Index.Path == "" {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: index.path is required for the sqlite backend"))
	}

	if c.Index.ChunkSize <= 0 {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: index.chunk_size must be greater than 0, got %d",
			c.Index.ChunkSize,
		))
	}

	if c.Index.ChunkOverlap < 0 {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: index.chunk_overlap must not be negative, got %d",
			c.Index.ChunkOverlap,
		))
	}

	if c.Index.TopK <= 0 {
		errs = append(errs, alcoveerr.Errorf(alcoveerr.CodeConfigValidateInvalidValue,
			"config: index.top_k must be greater than 0, got %d",
			c.Index.TopK,
		))
	}

	return errs
}
