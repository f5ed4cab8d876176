// Package config loads assetpack settings from a TOML file and turns them
// into loader options.
package config
