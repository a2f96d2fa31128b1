package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/usbq/internal/options"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // hcl and yaml files or directories
	Enable      []string // activated after the configured activations
	Set         []string // name.key=value option overrides
	Disable     []string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Iterations      int
	EventTimeout    time.Duration
}

// Override is one parsed --set entry.
type Override struct {
	Plugin string
	Key    string
	Value  any
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q, expected one of %s", cfg.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q, expected one of %s", cfg.LogFormat, strings.Join(validLogFormats, ", "))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d out of range", cfg.HealthcheckPort)
	}
	if cfg.Iterations < 0 {
		return nil, errors.New("iterations must not be negative")
	}
	if cfg.EventTimeout < 0 {
		return nil, errors.New("event timeout must not be negative")
	}
	if _, err := cfg.Overrides(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Overrides parses the Set entries in order.
func (c *Config) Overrides() ([]Override, error) {
	out := make([]Override, 0, len(c.Set))
	for _, s := range c.Set {
		o, err := ParseOverride(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ParseOverride parses `name.key=value`. The value is read as an HCL
// expression, so numbers, bools, lists and quoted strings keep their type;
// anything that does not evaluate on its own is taken as a plain string.
func ParseOverride(s string) (Override, error) {
	lhs, raw, ok := strings.Cut(s, "=")
	if !ok {
		return Override{}, fmt.Errorf("invalid override %q, expected name.key=value", s)
	}
	plugin, key, ok := strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok || plugin == "" || key == "" {
		return Override{}, fmt.Errorf("invalid override %q, expected name.key=value", s)
	}
	return Override{Plugin: plugin, Key: key, Value: parseValue(raw)}, nil
}

func parseValue(raw string) any {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "override", hcl.InitialPos)
	if diags.HasErrors() {
		return raw
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return raw
	}
	native, err := options.FromCtyValue(val)
	if err != nil || native == nil {
		return raw
	}
	return native
}
