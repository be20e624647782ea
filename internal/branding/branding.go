// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package before building; Go's
// //go:embed bakes it into the binary. Besides the CLI identity it names the
// upstream repository whose VERSION.txt is treated as the latest release.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
	GitHubRepo  string `yaml:"github_repo"`
	Branch      string `yaml:"branch"`
	VersionFile string `yaml:"version_file"`
	RawProxy    string `yaml:"raw_proxy"`
}

const rawGitHubBase = "https://raw.githubusercontent.com/"

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:     "verbadge",
			DisplayName: "VerBadge",
			Description: "Footer version indicator for self-hosted LibreTV deployments",
			HomeDir:     ".verbadge",
			EnvPrefix:   "VERBADGE",
			GoModule:    "github.com/librespark/verbadge",
			GitHubRepo:  "LibreSpark/LibreTV",
			Branch:      "main",
			VersionFile: "VERSION.txt",
			RawProxy:    "https://raw.ihtw.moe/",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "verbadge").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "VerBadge").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".verbadge").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "VERBADGE").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GitHubRepo returns the "owner/repo" string of the watched project.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// VersionFile returns the name of the version file, both locally and upstream.
func VersionFile() string { load(); return defaults.VersionFile }

// RepoURL returns the browser URL of the watched project.
func RepoURL() string {
	load()
	return "https://github.com/" + defaults.GitHubRepo
}

// DirectVersionURL returns the raw.githubusercontent.com URL of the upstream
// version file.
func DirectVersionURL() string {
	load()
	return rawGitHubBase + defaults.GitHubRepo + "/" + defaults.Branch + "/" + defaults.VersionFile
}

// ProxyVersionURL returns the mirrored URL of the upstream version file. The
// proxy prefixes the raw host and path, so the direct URL minus its scheme is
// appended to it.
func ProxyVersionURL() string {
	load()
	if defaults.RawProxy == "" {
		return DirectVersionURL()
	}
	return strings.TrimRight(defaults.RawProxy, "/") + "/" + strings.TrimPrefix(DirectVersionURL(), "https://")
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("TIMEOUT") → "VERBADGE_TIMEOUT".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
