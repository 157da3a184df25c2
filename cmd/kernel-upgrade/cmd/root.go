package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/kernel-upgrade/internal/config"
	"github.com/oshokin/kernel-upgrade/internal/logger"
	"github.com/oshokin/kernel-upgrade/internal/service/upgrade"
	"github.com/oshokin/kernel-upgrade/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// architecture overrides the configured target architecture.
	architecture string
	// skipConfirmation starts the upgrade without the countdown pause.
	skipConfirmation bool
	// logLevel controls console log verbosity.
	logLevel string

	// rootCmd represents the base command that performs one kernel upgrade run.
	rootCmd = &cobra.Command{
		Use:   "kernel-upgrade",
		Short: "Upgrade the Linux kernel to the latest stable mainline build.",
		Long: `Resolves the latest stable Linux kernel version from the announcement page,
downloads the four mainline Debian packages for it (common headers,
architecture headers, modules and image) and installs them through the
system package manager.

Elevation happens through sudo, so the settings file must carry the sudo
password. A complete report of the run is written to the run log file on
every exit, successful or not.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &upgrade.Options{
				ConfigPath:       configPath,
				Architecture:     architecture,
				SkipConfirmation: skipConfirmation,
			}

			return upgrade.Run(ctx, options)
		},
	}
)

// Execute runs the kernel-upgrade CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	rootCmd.Flags().
		StringVarP(&architecture, "architecture", "a", "", "target package architecture (overrides settings)")
	rootCmd.Flags().BoolVarP(&skipConfirmation, "yes", "y", false, "start immediately without the countdown pause")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
