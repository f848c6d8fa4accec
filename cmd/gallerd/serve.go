package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gallerd"
	"gallerd/auth"
	"gallerd/config"
	"gallerd/database"
	"gallerd/filesystem"
	gallerdhttp "gallerd/http"
	"gallerd/s3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gallery server",
	Long:  `Start the gallerd HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5712, "HTTP server port")
	serveCmd.Flags().String("public-url", "", "externally reachable base URL (default: http://localhost:<port>)")
	serveCmd.Flags().String("metadata-type", "", "metadata backend: redis, sqlite, postgres (default: sqlite)")
	serveCmd.Flags().String("metadata-dsn", "", "metadata connection string (default: gallerd.db)")
	serveCmd.Flags().String("redis-addr", "", "redis address (default: localhost:6379)")
	serveCmd.Flags().String("blob-type", "", "blob backend: filesystem, s3 (default: filesystem)")
	serveCmd.Flags().String("blob-path", "", "blob directory for the filesystem backend (default: ./data)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.Load(configFiles, cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx = config.WithContext(ctx, cfg)

	repo, cleanup, err := database.Connect(ctx, cfg.Metadata)
	if err != nil {
		return fmt.Errorf("connect metadata store: %w", err)
	}
	defer cleanup()
	slog.Info("connected to metadata store", "type", cfg.Metadata.Type)

	blobs, blobReader, verifier, err := buildBlobStore(ctx, cfg)
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

	handlerConfig := gallerdhttp.HandlerConfig{
		BasePath:     cfg.Server.BasePath,
		APIKey:       cfg.Auth.APIKey,
		BlobVerifier: verifier,
		CORS:         cfg.CORS,
	}
	if cfg.Auth.Admin.Username != "" {
		admin := cfg.Auth.Admin
		handlerConfig.VerifyLogin = func(username, password string) bool {
			return auth.VerifyLogin(admin.Username, admin.PasswordHash, username, password)
		}
	}
	handler := gallerdhttp.NewHandler(&handlerConfig, service, blobReader)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "blob", cfg.Blob.Type)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// buildBlobStore constructs the configured blob backend. The filesystem
// backend also returns a reader and a verifier so the server can serve the
// signed /blob route itself; the s3 backend presigns against the object
// store directly.
func buildBlobStore(ctx context.Context, cfg *config.Config) (gallerd.BlobStore, gallerdhttp.BlobReader, *gallerd.Verifier, error) {
	switch cfg.Blob.Type {
	case "s3":
		store, err := s3.New(ctx, cfg.Blob.S3)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create s3 store: %w", err)
		}
		return store, nil, nil, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Blob.Path, 0o750); err != nil {
			return nil, nil, nil, fmt.Errorf("create blob directory: %w", err)
		}
		root, err := os.OpenRoot(cfg.Blob.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open blob root: %w", err)
		}

		signing := cfg.Auth.Signing
		signer := gallerd.NewSigner(signing)
		verifier := gallerd.NewVerifier(signing.Region, signing.Service, func(accessKey string) (string, bool) {
			if accessKey != "" && accessKey == signing.AccessKey {
				return signing.SecretKey, true
			}
			return "", false
		})

		store := filesystem.New(root, signer, cfg.Server.PublicURL)
		return store, store, verifier, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown blob type %q", cfg.Blob.Type)
	}
}
