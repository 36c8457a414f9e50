package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/documind/documind/pkg/config"
	"github.com/documind/documind/pkg/logger"
)

// RootCmd builds the documind command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "documind",
		Short:         "Document question answering over your own files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("env-file", "", "Path to a .env file loaded before configuration")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	root.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	root.PersistentFlags().Bool("log-source", false, "Include source locations in logs")

	root.AddCommand(
		IndexCmd(),
		AskCmd(),
		DeleteCmd(),
	)

	return root
}

// setupContext loads the env file and configuration, then attaches a logger
// to the command context.
func setupContext(cmd *cobra.Command) (context.Context, *config.Config, error) {
	if err := loadEnvFile(cmd); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !cmd.Flags().Changed("log-level") && cfg.Log.Level != "" {
		logLevel = cfg.Log.Level
	}
	log := logger.SetupLogger(logLevel, logJSON || cfg.Log.JSON, logSource || cfg.Log.Source)
	return logger.ContextWithLogger(cmd.Context(), log), cfg, nil
}

func loadEnvFile(cmd *cobra.Command) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile == "" {
		// Default .env is optional.
		if _, statErr := os.Stat(".env"); statErr != nil {
			return nil
		}
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}
	return nil
}
