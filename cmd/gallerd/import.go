package main

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gallerd"
	"gallerd/config"
	"gallerd/database"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <file1> [file2] ...",
	Short: "Import JPEG files into the gallery",
	Long: `Import JPEG files from local paths directly into the gallery,
without going through the HTTP API.

Each file is dated by its modification time, which decides the month
it is grouped under. Non-JPEG files are skipped.

Examples:
  # Import a couple of photos
  gallerd import photo1.jpg photo2.jpg

  # Import a directory recursively
  gallerd import -r ~/Pictures/2026
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var importRecursive bool

func init() {
	importCmd.Flags().BoolVarP(&importRecursive, "recursive", "r", false, "recursively import directories")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	repo, cleanup, err := database.Connect(ctx, cfg.Metadata)
	if err != nil {
		return fmt.Errorf("connect metadata store: %w", err)
	}
	defer cleanup()

	blobs, _, _, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	service, err := gallerd.NewService(repo, blobs, gallerd.ServiceConfig{
		URLTTL:         time.Duration(cfg.Gallery.URLTTL) * time.Second,
		CleanupTimeout: time.Duration(cfg.Gallery.CleanupTimeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	var paths []string
	for _, arg := range args {
		collected, collectErr := collectJPEGs(arg, importRecursive)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		paths = append(paths, collected...)
	}

	if len(paths) == 0 {
		slog.Info("no jpeg files to import")
		return nil
	}

	entries := make([]gallerd.UploadEntry, 0, len(paths))
	for _, path := range paths {
		entry, buildErr := entryFromFile(path)
		if buildErr != nil {
			slog.Warn("skipping file", "path", path, "err", buildErr)
			continue
		}
		entries = append(entries, entry)
	}

	result, err := service.Upload(ctx, entries)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	for _, img := range result.Images {
		slog.Info("imported", "id", img.ID, "month", img.MonthYear)
	}
	for _, s := range result.Skipped {
		slog.Warn("skipped entry", "index", s.Index, "reason", s.Reason)
	}

	slog.Info("import complete", "imported", len(result.Images), "skipped", len(result.Skipped))
	return nil
}

// collectJPEGs expands a path argument into jpeg file paths.
func collectJPEGs(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to import recursively)", path)
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".jpg" || ext == ".jpeg" {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// entryFromFile reads one local file into an upload entry, dated by its
// modification time.
func entryFromFile(path string) (gallerd.UploadEntry, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided input
	if err != nil {
		return gallerd.UploadEntry{}, fmt.Errorf("read file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return gallerd.UploadEntry{}, fmt.Errorf("stat file: %w", err)
	}

	return gallerd.UploadEntry{
		Base64: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
		Date:   info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}
