// Package cli implements the scriptura CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scriptura/internal/config"
	"scriptura/internal/seed"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "scriptura",
	Short: "Offline-capable scripture content access layer",
	Long:  "Serves canonical chapter navigation, cached study topics, and credential refresh for reading clients, falling back to a seeded local dataset when offline.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: config.yaml)")
}

func loadConfig() config.FileConfig {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

func seedResolver(cfg config.FileConfig) seed.AssetResolver {
	if cfg.MinioEndpoint != "" {
		asset, err := seed.NewObjectAsset(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioObject, cfg.SeedCacheDir, cfg.MinioUseSSL)
		if err != nil {
			exitErr("init seed object resolver", err)
		}
		return asset
	}
	return seed.FileAsset{Path: cfg.SeedAssetPath}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
