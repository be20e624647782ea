// Package cli defines the Cobra command tree for the verbadge CLI. Each file
// in this package registers one top-level command (check, render, serve,
// config, version) with the root command. Command implementations delegate to
// internal packages for the version check and footer rendering, and only
// handle flag parsing, I/O formatting, and user interaction.
package cli
