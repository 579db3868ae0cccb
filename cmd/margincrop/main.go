// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the margincrop CLI. Each pipeline
// operation is a subcommand: crop, preview, inspect, and history.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the margincrop CLI.
var rootCmd = &cobra.Command{
	Use:   "margincrop",
	Short: "Batch margin cropping for PDF and Word documents",
	Long: `margincrop removes or grows page margins across a batch of documents.
PDF pages are cropped by shrinking the visible page box; Word documents are
cropped by enlarging each section's margins. Legacy .doc files are converted
to .docx through a local office suite before cropping.

Outputs are written next to the originals (or into --out) with a filename
suffix; source files are never modified.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A local .env may carry MARGINCROP_* overrides; absence is fine.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./margincrop.yaml or ~/.config/margincrop/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("margincrop")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "margincrop"))
		}
	}

	viper.SetEnvPrefix("MARGINCROP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// dataDir returns the directory for persistent state such as the run history
// database.
func dataDir() string {
	if dir := viper.GetString("data_dir"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "margincrop")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
