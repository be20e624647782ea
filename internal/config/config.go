package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/librespark/verbadge/internal/branding"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys understood by the CLI.
const (
	KeyBaseURL     = "base_url"
	KeyLocalPath   = "local_path"
	KeyPrimaryURL  = "primary_url"
	KeyFallbackURL = "fallback_url"
	KeyRepoURL     = "repo_url"
	KeyTimeout     = "timeout"
	KeyCacheTTL    = "cache_ttl"
	KeyLang        = "lang"
	KeySiteDir     = "site_dir"
	KeyAddr        = "addr"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
)

// Settings is the typed view of the configuration.
type Settings struct {
	BaseURL     string        `mapstructure:"base_url"`
	LocalPath   string        `mapstructure:"local_path"`
	PrimaryURL  string        `mapstructure:"primary_url"`
	FallbackURL string        `mapstructure:"fallback_url"`
	RepoURL     string        `mapstructure:"repo_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Lang        string        `mapstructure:"lang"`
	SiteDir     string        `mapstructure:"site_dir"`
	Addr        string        `mapstructure:"addr"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
}

// Dir returns the path to the config directory (~/.verbadge/).
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.verbadge/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// SetDefaults registers the built-in value of every key.
func SetDefaults() {
	viper.SetDefault(KeyBaseURL, "http://localhost:8080")
	viper.SetDefault(KeyLocalPath, "/"+branding.VersionFile())
	viper.SetDefault(KeyPrimaryURL, branding.ProxyVersionURL())
	viper.SetDefault(KeyFallbackURL, branding.DirectVersionURL())
	viper.SetDefault(KeyRepoURL, branding.RepoURL())
	viper.SetDefault(KeyTimeout, "1500ms")
	viper.SetDefault(KeyCacheTTL, "15m")
	viper.SetDefault(KeyLang, "en")
	viper.SetDefault(KeySiteDir, "./site")
	viper.SetDefault(KeyAddr, ":8080")
	viper.SetDefault(KeyLogLevel, "warn")
	viper.SetDefault(KeyLogFormat, "text")
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	SetDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current decodes the loaded configuration into Settings.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	return s, nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file. The value is
// checked against the schema first; an invalid value leaves the file and the
// loaded config untouched and returns an error wrapping ErrInvalidConfig.
func Set(key, value string) error {
	key = strings.ToLower(key)
	if err := checkValue(key, value); err != nil {
		return err
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// checkValue validates the config Set would write, which is every loaded
// setting with key replaced.
func checkValue(key, value string) error {
	candidate := viper.AllSettings()
	candidate[key] = value

	data, err := yaml.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	issues, err := Validate(data)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return nil
	}

	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
