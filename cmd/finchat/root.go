package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"finchat/internal/config"
	"finchat/internal/logging"
)

var (
	cfgPath string
	verbose bool

	// cfg is loaded once in PersistentPreRunE and shared by every subcommand.
	cfg *config.AppConfig
)

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it opens the chat window.
var rootCmd = &cobra.Command{
	Use:   "finchat",
	Short: "Aryzen finance assistant",
	Long: `finchat answers questions about Aryzen Capital Advisors and basic
finance terminology, grounded in a local knowledge-base directory.
Investment advice and predictions are refused.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		path := cfgPath
		if path == "" {
			cfg, path, err = config.LoadDefault()
		} else {
			cfg, err = config.Load(path)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		slog.SetDefault(logging.New(level, os.Stderr))
		slog.Debug("config loaded", "path", path)
		return nil
	},
	RunE: runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config (default ./config.yaml or ~/.config/finchat/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
