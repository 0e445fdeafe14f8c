// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based contact type and domain configuration
//   - SessionStore: JSON-based session persistence
package file
