package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VERBADGE_HOME", dir)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return dir
}

func TestCurrent_Defaults(t *testing.T) {
	isolate(t)
	Load()

	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, s.Timeout)
	assert.Equal(t, 15*time.Minute, s.CacheTTL)
	assert.Equal(t, "/VERSION.txt", s.LocalPath)
	assert.Equal(t, "https://raw.githubusercontent.com/LibreSpark/LibreTV/main/VERSION.txt", s.FallbackURL)
	assert.Equal(t, "https://raw.ihtw.moe/raw.githubusercontent.com/LibreSpark/LibreTV/main/VERSION.txt", s.PrimaryURL)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestCurrent_FileAndEnvOverrides(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("timeout: 3s\nlang: zh-TW\n"), 0644))
	t.Setenv("VERBADGE_CACHE_TTL", "0")

	Load()
	s, err := Current()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, s.Timeout)
	assert.Equal(t, "zh-TW", s.Lang)
	assert.Equal(t, time.Duration(0), s.CacheTTL)
}

func TestSetAndGet(t *testing.T) {
	dir := isolate(t)
	Load()

	require.NoError(t, Set("addr", ":9090"))
	assert.Equal(t, ":9090", Get("addr"))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ":9090")

	issues, err := ValidateFile(FilePath())
	require.NoError(t, err)
	assert.Empty(t, issues, "a file written by Set must validate")
}

func TestSet_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "timeout", "soon"},
		{"unknown key", "colour", "red"},
		{"bad log level", "log_level", "loud"},
		{"relative url", "primary_url", "raw.example.com/VERSION.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			Load()

			err := Set(tt.key, tt.value)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.key)

			_, statErr := os.Stat(filepath.Join(dir, "config.yaml"))
			assert.True(t, os.IsNotExist(statErr), "nothing is written for an invalid value")

			_, err = Current()
			assert.NoError(t, err, "loaded config stays usable")
		})
	}
}
