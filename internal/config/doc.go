// Package config manages user-level settings stored at ~/.verbadge/config.yaml.
// It registers defaults for every key (endpoints, timeouts, cache TTL, server
// address, logging), overlays the config file and VERBADGE_* environment
// variables through Viper, and validates config files against an embedded
// JSON schema.
package config
