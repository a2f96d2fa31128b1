// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the startup sequence (configuration
// loading, plugin discovery, registry build, activation and the event
// loop), decoupled from any specific entrypoint like a CLI or server.
package app
