package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"piedpiper/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	language   string

	// Logger
	logger *zap.Logger
)

const version = "1.0.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "piper",
	Short: "Pied Piper - conversational voice music agent",
	Long: `Pied Piper is a conversational music assistant.

It routes what you say through an intent cascade, aggregates song knowledge
from web and video search, and remembers what it learned for the rest of the
session. Play songs, search for music, ask for trivia, debate music opinions,
or just chat.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if language != "" {
			cfg.Session.DefaultLanguage = language
		}
		return runChat(cmd.Context(), cfg, logger)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("piper %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "piper.yaml", "path to config file")
	rootCmd.Flags().StringVarP(&language, "language", "l", "", "conversation language (en, es, fr, de, it, hi)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
