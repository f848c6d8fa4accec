package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"gallerd/client"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	apiKey      string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "gallerd-cli",
	Version: version,
	Short:   "Client for gallerd photo galleries",
	Long: `Gallerd CLI - client for gallerd photo gallery servers.

Browse the gallery grouped by month, upload JPEG photos, and delete
images. Listing works without credentials when the server allows public
reads; upload and delete need the API key.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.gallerd/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: GALLERD_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5712, env: GALLERD_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&apiKey, "api-key", "k", "", "API key (env: GALLERD_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(monthsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getConfigPath resolves the configuration file path from flag, env, or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if envPath := client.ConfigPathFromEnv(); envPath != "" {
		return envPath
	}
	return client.DefaultConfigPath()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*client.Config, error) {
	var configs []*client.Config

	// 1. Load from the selected profile
	configPath := getConfigPath()
	if configPath != "" {
		configFile, err := client.LoadConfigFile(configPath)
		if err != nil {
			// Only error if the user explicitly pointed at a config file
			if cfgFile != "" {
				return nil, err
			}
		} else {
			name := profileName
			if name == "" {
				name = client.ProfileFromEnv()
			}
			profile, profileErr := configFile.GetProfile(name)
			if profileErr != nil {
				if !errors.Is(profileErr, client.ErrNoProfiles) {
					return nil, profileErr
				}
			} else {
				configs = append(configs, client.ConfigFromProfile(profile))
			}
		}
	}

	// 2. Load from environment variables
	configs = append(configs, client.ConfigFromEnv())

	// 3. Load from flags
	configs = append(configs, &client.Config{
		Endpoint: endpoint,
		APIKey:   apiKey,
	})

	return client.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() client.Formatter {
	return client.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*client.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return client.New(cfg)
}
