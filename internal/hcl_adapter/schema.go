package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level content a configuration file may carry.
type fileRoot struct {
	Plugins     []*pluginBlock   `hcl:"plugin,block"`
	Activations []*activateBlock `hcl:"activate,block"`
	Disabled    []string         `hcl:"disabled,optional"`
}

// pluginBlock is a `plugin "<name>"` manifest entry.
type pluginBlock struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
	Module      string `hcl:"module"`
	Type        string `hcl:"type"`
	Optional    bool   `hcl:"optional,optional"`
}

// activateBlock is an `activate "<name>"` entry. Every attribute in its body
// is a constructor option.
type activateBlock struct {
	Name    string   `hcl:"name,label"`
	Options hcl.Body `hcl:",remain"`
}
