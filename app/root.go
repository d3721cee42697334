// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "storefront-admin",
	Short: "StorefrontAdmin is the back office of the storefront",
	Long: `StorefrontAdmin is the back office of the storefront web property.
It manages products, categories, brands, portfolios, media, users and roles,
records every change in an audit log and receives the public contact form.`,
	Args: cobra.OnlyValidArgs,
}

var (
	configPath string // Path to the configuration directory
	devMode    bool
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "Directory holding main.toml")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// loadConfig reads the configuration and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if devMode {
		cfg.DevMode = true
	}

	if err = logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
