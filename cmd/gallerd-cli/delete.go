package main

import (
	"context"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id> [id...]",
	Aliases: []string{"rm"},
	Short:   "Delete images from the gallery",
	Long: `Delete one or more images from the gallery by id.

Asks for confirmation unless --yes is given. Continues on error so a
bad id does not stop the rest of the batch.

Examples:
  gallerd-cli delete 1756500000000-k3x9p2.jpg
  gallerd-cli rm --yes 1756500000000-k3x9p2.jpg 1756500000001-m8q2z7.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}

func runDelete(_ *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if !deleteYes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete %d image(s)", len(args)),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	formatter := getFormatter()
	failed := false

	for _, id := range args {
		if err := c.Delete(context.Background(), id); err != nil {
			_ = formatter.FormatError(os.Stderr, err)
			failed = true
			continue
		}
		if err := formatter.FormatDelete(os.Stdout, id); err != nil {
			return err
		}
	}

	if failed {
		return &exitError{code: 1}
	}
	return nil
}
