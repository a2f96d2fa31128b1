// Package yaml_adapter is the YAML implementation of config.Loader.
package yaml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vk/usbq/internal/config"
	"github.com/vk/usbq/internal/ctxlog"
	"github.com/vk/usbq/internal/fsutil"
	"github.com/vk/usbq/internal/options"
	"gopkg.in/yaml.v3"
)

// Extensions are the file extensions this loader reads.
var Extensions = []string{".yaml", ".yml"}

type fileRoot struct {
	Plugins  []pluginEntry   `yaml:"plugins"`
	Activate []activateEntry `yaml:"activate"`
	Disabled []string        `yaml:"disabled"`
}

type pluginEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Module      string `yaml:"module"`
	Type        string `yaml:"type"`
	Optional    bool   `yaml:"optional"`
}

type activateEntry struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options"`
}

// Loader reads YAML configuration files.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every YAML file found under paths, in sorted order. Unknown
// keys are rejected.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	model := &config.Model{}
	for _, file := range files {
		m, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		model.Merge(m)
	}
	return model, nil
}

func loadFile(file string) (*config.Model, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
	}

	var root fileRoot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
	}

	m := &config.Model{Disabled: root.Disabled}
	for i, p := range root.Plugins {
		if p.Name == "" || p.Module == "" || p.Type == "" {
			return nil, fmt.Errorf("in %s: plugins[%d]: name, module and type are required", file, i)
		}
		m.Plugins = append(m.Plugins, &config.PluginDefinition{
			Name:        p.Name,
			Description: p.Description,
			Module:      p.Module,
			Type:        p.Type,
			Optional:    p.Optional,
		})
	}
	for i, a := range root.Activate {
		if a.Name == "" {
			return nil, fmt.Errorf("in %s: activate[%d]: name is required", file, i)
		}
		opts := options.Options{}
		for k, v := range a.Options {
			opts[k] = v
		}
		m.Activations = append(m.Activations, &config.Activation{Name: a.Name, Options: opts})
	}
	return m, nil
}
