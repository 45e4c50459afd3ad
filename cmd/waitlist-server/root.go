package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tmater/waitlist/internal/config"
	"github.com/tmater/waitlist/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "waitlist-server",
	Short:         "Waitlist admin backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "waitlist.yaml", "path to config file")
}

// loadConfig reads the config file and builds the process logger from it.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(logging.Options{
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		Output:        cfg.Log.Output,
		FileMaxSizeMB: cfg.Log.FileMaxSizeMB,
		FilesKeep:     cfg.Log.FilesKeep,
	})
	return cfg, log, nil
}
