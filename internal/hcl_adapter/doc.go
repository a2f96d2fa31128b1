// Package hcl_adapter is the HCL implementation of config.Loader. It parses
// `plugin` manifest blocks, `activate` blocks and the top-level `disabled`
// list, translating them into the format-agnostic config.Model.
package hcl_adapter
