// Package file provides file-based persistence for user configuration,
// stored as TOML under the askdocs config directory.
package file
