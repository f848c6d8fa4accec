package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file1.jpg> [file2.jpg...]",
	Short: "Upload JPEG photos to the gallery",
	Long: `Upload one or more JPEG photos to the gallery.

Each photo is dated by its modification time, which decides the month
it is grouped under. Non-JPEG files are rejected before upload.

Examples:
  gallerd-cli upload photo.jpg
  gallerd-cli upload vacation/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func runUpload(_ *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	outcome, err := c.Upload(context.Background(), args)
	formatter := getFormatter()
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	if err := formatter.FormatUpload(os.Stdout, outcome); err != nil {
		return err
	}

	// Non-zero exit when nothing made it into the gallery
	if len(outcome.Uploaded) == 0 {
		return &exitError{code: 1}
	}

	return nil
}

// exitError is returned when we want to exit with a specific code
// but don't want cobra to print an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}
