package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/librespark/verbadge/internal/branding"
	"github.com/librespark/verbadge/internal/config"
	"github.com/librespark/verbadge/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` checks a deployed site's VERSION.txt against the latest upstream
version and renders a footer indicator: the current version, plus an
"update available" badge when upstream is newer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()

		h, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(),
			viper.GetString(config.KeyLogLevel), viper.GetString(config.KeyLogFormat))
		if err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}
		slog.SetDefault(slog.New(h))
		slog.Debug("config loaded", "file", config.FilePath())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Set the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Set the log format (text, logfmt, json)")
	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
