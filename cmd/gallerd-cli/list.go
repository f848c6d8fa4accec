package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"gallerd/client"
)

var listMonth string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List gallery images grouped by month",
	Long: `List all gallery images grouped by month, newest month first.

Image URLs in the output are freshly signed by the server on every
call.

Examples:
  gallerd-cli list
  gallerd-cli list --month 2026-08
  gallerd-cli list --json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listMonth, "month", "m", "", "only show one month (YYYY-MM)")
}

func runList(_ *cobra.Command, _ []string) error {
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

	if listMonth != "" {
		grouped := client.GroupByMonth(images)
		images = grouped[listMonth]
	}

	return formatter.FormatList(os.Stdout, images)
}
