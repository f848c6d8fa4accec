package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var loginSave bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with the gallery owner's credentials",
	Long: `Log in with the gallery owner's username and password and print the
API key the server hands back.

With --save the key is written to the active profile so later commands
pick it up automatically.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginSave, "save", false, "store the API key in the active profile")
}

func runLogin(_ *cobra.Command, _ []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	usernamePrompt := promptui.Prompt{Label: "Username"}
	username, err := usernamePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	key, err := c.Login(context.Background(), username, password)
	if err != nil {
		formatter := getFormatter()
		_ = formatter.FormatError(os.Stderr, err)
		return &exitError{code: 1}
	}

	if !loginSave {
		fmt.Println(key)
		return nil
	}

	return saveAPIKey(key)
}

// saveAPIKey stores key in the active profile of the config file.
func saveAPIKey(key string) error {
	configPath := getConfigPath()

	cfg, err := loadOrCreateConfigFile(configPath)
	if err != nil {
		return err
	}

	profile, err := cfg.GetProfile(profileName)
	if err != nil {
		return fmt.Errorf("no profile to save to: %w", err)
	}

	profile.APIKey = key
	if err := cfg.UpdateProfile(*profile); err != nil {
		return err
	}
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("API key saved to profile '%s'.\n", profile.Name)
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
