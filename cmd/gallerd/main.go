package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configFiles []string

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "gallerd",
	Short:   "Personal photo gallery server",
	Long: `Gallerd is a small photo gallery server. It stores JPEG images in a
blob backend (local filesystem or S3-compatible object storage), keeps
metadata in a key-value store (redis, sqlite, or postgres), and serves
a JSON API with signed image URLs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", nil, "config file path(s), later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: GALLERD_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("env", "", "environment: dev, prod (env: GALLERD_ENV)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
