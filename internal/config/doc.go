// Package config resolves server settings from defaults, an optional YAML
// file, environment variables (a .env file is loaded by the binaries) and
// command-line flags, in that order of increasing precedence.
package config
