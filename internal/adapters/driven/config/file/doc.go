// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML or YAML configuration storage with dot-notation keys
//   - PromptStore: user-editable prompt templates with embedded defaults
//
// ApplyConfig and ApplyEnv turn a ConfigStore and the process environment
// into a domain.Config.
package file
