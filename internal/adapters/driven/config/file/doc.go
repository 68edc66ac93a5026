// Package file keeps user-editable state under the docrag home directory:
// config.toml, read and written by ConfigStore, and the prompts/ directory
// served by PromptStore.
package file
