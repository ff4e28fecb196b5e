package cli

import (
	"fmt"

	"github.com/migmoroni/vaudio/internal/config"
	"github.com/migmoroni/vaudio/internal/env"
	"github.com/migmoroni/vaudio/internal/logger"
	"github.com/spf13/cobra"
)

var GlobalDebug bool
var LogFile string

// settings is loaded from the environment before any subcommand runs;
// flags override it.
var settings config.Config

func NewRootCommand() *cobra.Command {
	var homeDir string
	cmd := &cobra.Command{
		Use:          "vaudio-bridge",
		Short:        "Native command bridge for the vaudio UI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if homeDir == "" {
				homeDir = cfg.Home
			}
			if err := env.Init(homeDir); err != nil {
				return fmt.Errorf("environment setup failed: %w", err)
			}
			if !cmd.Flags().Changed("debug") {
				GlobalDebug = cfg.Debug
			}
			if LogFile == "" {
				LogFile = cfg.LogFile
			}
			settings = cfg

			logger.Setup(logger.Config{Debug: GlobalDebug, FilePath: LogFile})
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&GlobalDebug, "debug", "d", false, "Enable debug mode")
	cmd.PersistentFlags().StringVar(&homeDir, "home", "", "Custom working directory (default: $VAUDIO_HOME or ~/.vaudio)")
	cmd.PersistentFlags().StringVar(&LogFile, "log", "", "Custom log file (default: stdout)")

	cmd.AddCommand(newVersionCommand(),
		newServeCommand(),
		newInvokeCommand(),
		newCommandsCommand(),
	)

	return cmd
}

// execute command
func Execute() error {
	return NewRootCommand().Execute()
}

// socketPath is the bridge socket chosen by env, unless overridden.
func socketPath() string {
	if settings.Socket != "" {
		return settings.Socket
	}
	return env.Get().SocketFile
}
