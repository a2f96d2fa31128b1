// Package registry builds the canonical plugin registry.
//
// Discovered objects answer the declare_plugins hook with descriptors: the
// name of a plugin, a human description, and the module reference and type
// name a loader.Catalog resolves to a constructor. Build merges those
// declarations with first-registered-wins precedence and then injects the
// reserved optional usbq_hooks descriptor. The result is read-only and is
// passed explicitly to activation; there is no package-level registry.
package registry
