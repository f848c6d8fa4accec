package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gallerd"
	"gallerd/database"
	gallerdhttp "gallerd/http"
	"gallerd/s3"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for gallerd.
type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Gallery  GalleryConfig          `mapstructure:"gallery"`
	Metadata database.Config        `mapstructure:"metadata"`
	Blob     BlobConfig             `mapstructure:"blob"`
	Auth     AuthConfig             `mapstructure:"auth"`
	CORS     gallerdhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig              `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	BasePath string `mapstructure:"base_path"`
	// PublicURL is the externally reachable base URL, used when issuing
	// signed links for the filesystem backend.
	PublicURL string `mapstructure:"public_url" validate:"required,url"`
}

// GalleryConfig holds service-level configuration.
type GalleryConfig struct {
	// URLTTL is the lifetime of presigned image URLs in seconds.
	URLTTL         int `mapstructure:"url_ttl" validate:"min=1"`
	CleanupTimeout int `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// BlobConfig selects and configures the blob backend.
type BlobConfig struct {
	Type string    `mapstructure:"type" validate:"required,oneof=filesystem s3"`
	Path string    `mapstructure:"path"`
	S3   s3.Config `mapstructure:"s3"`
}

// AdminConfig holds the gallery owner's login credentials. PasswordHash
// accepts a bcrypt hash; a plain value also works for local setups.
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey  string                `mapstructure:"api_key"`
	Admin   AdminConfig           `mapstructure:"admin"`
	Signing gallerd.SigningConfig `mapstructure:"signing"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"metadata-type": "metadata.type",
	"metadata-dsn":  "metadata.dsn",
	"redis-addr":    "metadata.addr",
	"blob-type":     "blob.type",
	"blob-path":     "blob.path",
	"port":          "server.port",
	"public-url":    "server.public_url",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5712)
	v.SetDefault("server.base_path", "/")
	v.SetDefault("server.public_url", "http://localhost:5712")

	v.SetDefault("gallery.url_ttl", 365*24*3600) // seconds
	v.SetDefault("gallery.cleanup_timeout", 30)  // seconds

	v.SetDefault("metadata.type", "sqlite")
	v.SetDefault("metadata.dsn", "gallerd.db")
	v.SetDefault("metadata.tables.kv", "gallerd_kv")
	v.SetDefault("metadata.addr", "localhost:6379")
	v.SetDefault("metadata.db", 0)

	v.SetDefault("blob.type", "filesystem")
	v.SetDefault("blob.path", "./data")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.bucket", "gallerd-images")
	v.SetDefault("blob.s3.use_ssl", true)

	v.SetDefault("auth.signing.region", "us-east-1")
	v.SetDefault("auth.signing.service", "s3")

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("GALLERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Blob.Type == "filesystem" && cfg.Blob.Path == "" {
		return nil, errors.New("blob.path is required for the filesystem backend")
	}
	if cfg.Blob.Type == "s3" && cfg.Blob.S3.Endpoint == "" {
		return nil, errors.New("blob.s3.endpoint is required for the s3 backend")
	}

	return &cfg, nil
}
