package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag   string
		envFlag      string
		providerFlag string
		probeFlag    string
		verboseFlag  bool
	)

	cc := newCommandContext(&configFlag, &providerFlag, &probeFlag)

	rootCmd := &cobra.Command{
		Use:           "parley",
		Short:         "Talk to LLM providers from the command line",
		Long:          "Parley builds verified LLM providers from simple configuration and drives\nvalidated text, JSON and schema conversations over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(envFlag); err != nil {
				return err
			}
			installLogger(verboseFlag)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "configuration file path (default: parley.yaml, then .parley/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", ".env", "path to .env file (ignored if missing)")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "provider entry to use (default: the configured default)")
	rootCmd.PersistentFlags().StringVar(&probeFlag, "probe", "", "probe mode override: full, transport or skip")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newAskCommand(cc))
	rootCmd.AddCommand(newSchemaCommand(cc))
	rootCmd.AddCommand(newModelsCommand(cc))
	rootCmd.AddCommand(newDoctorCommand(cc))
	rootCmd.AddCommand(newInitCommand())

	return rootCmd
}

func installLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
