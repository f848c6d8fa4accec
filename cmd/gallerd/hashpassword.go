package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"gallerd/auth"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Generate a bcrypt hash for the admin password",
	Long: `Generate a bcrypt hash suitable for auth.admin.password_hash.

The password is prompted for interactively and never echoed.`,
	RunE: runHashPassword,
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(_ *cobra.Command, _ []string) error {
	passwordPrompt := promptui.Prompt{
		Label:    "Password",
		Mask:     '*',
		Validate: auth.ValidatePassword,
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			fmt.Println("\nCancelled.")
			os.Exit(0)
		}
		return err
	}

	confirmPrompt := promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
	}
	confirm, err := confirmPrompt.Run()
	if err != nil {
		return err
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	fmt.Println(hash)
	return nil
}
