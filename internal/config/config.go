// Package config loads server configuration from YAML or JSON files.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for an mcpinvoke server.
type Config struct {
	// Server identifies the implementation advertised by initialize.
	Server ServerConfig `yaml:"server" json:"server"`

	// DisabledTools lists tool names excluded from the registry.
	DisabledTools []string `yaml:"disabledTools" json:"disabledTools"`

	// DisabledHandlers lists handlers whose tools are all excluded.
	DisabledHandlers []string `yaml:"disabledHandlers" json:"disabledHandlers"`
}

// ServerConfig carries the server identity and instructions.
type ServerConfig struct {
	Name         string `yaml:"name" json:"name"`
	Version      string `yaml:"version" json:"version"`
	Instructions string `yaml:"instructions" json:"instructions"`
}

// DefaultConfig returns a configuration with nothing disabled.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "mcpinvoke",
			Version: "dev",
		},
	}
}

// LoadFile loads configuration from a file. A missing file yields the
// defaults. YAML and JSON are both accepted (yaml is a superset of json
// for this shape).
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads configuration from an io.Reader.
func Load(r io.Reader) (*Config, error) {
	config := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return config, nil
}

// IsToolDisabled checks if a specific tool name is in the disabled list.
func (c *Config) IsToolDisabled(name string) bool {
	for _, disabled := range c.DisabledTools {
		if disabled == name {
			return true
		}
	}
	return false
}

// IsHandlerDisabled checks if a handler's tools are all disabled.
func (c *Config) IsHandlerDisabled(handlerID string) bool {
	for _, disabled := range c.DisabledHandlers {
		if disabled == handlerID {
			return true
		}
	}
	return false
}

// ToolFilter renders the config as a registry build filter.
func (c *Config) ToolFilter() func(toolName, handlerID string) bool {
	return func(toolName, handlerID string) bool {
		return !c.IsToolDisabled(toolName) && !c.IsHandlerDisabled(handlerID)
	}
}
