// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading configuration
// from files.
//
// The `config.Model` carries plugin manifests, the ordered activation
// request and the disabled set. Concrete loaders for HCL and YAML live in
// separate packages; Composite dispatches between them by file extension.
package config
