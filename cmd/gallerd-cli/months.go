package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"gallerd/client"
)

var monthsCmd = &cobra.Command{
	Use:   "months",
	Short: "Show the month navigation",
	Long: `Show the gallery's months with image counts, newest first.

This mirrors the month navigation bar of the web gallery.`,
	RunE: runMonths,
}

func runMonths(_ *cobra.Command, _ []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	images, err := c.List(context.Background())
	formatter := getFormatter()
	if err != nil {
		_ = formatter.FormatError(os.Stderr, err)
		return err
	}

	return formatter.FormatMonths(os.Stdout, client.GroupByMonth(images))
}
