package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage provider names accepted by StorageConfig.Provider.
const (
	ProviderS3     = "s3"
	ProviderMinio  = "minio"
	ProviderMemory = "memory"
)

// PresignExpirySeconds is the fixed lifetime of every download link.
const PresignExpirySeconds int64 = 3600

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Upload  UploadConfig
	Log     LogConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	Environment        string        `mapstructure:"environment"`
	ExposeErrorDetails bool          `mapstructure:"expose_error_details"`
}

// StorageConfig holds object storage settings. The same fields drive the
// s3 and minio providers; the memory provider only uses the Memory* fields.
type StorageConfig struct {
	Provider         string `mapstructure:"provider"`
	Region           string `mapstructure:"region"`
	Bucket           string `mapstructure:"bucket"`
	Endpoint         string `mapstructure:"endpoint"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	KMSKeyID         string `mapstructure:"kms_key_id"`
	PresignExpiry    int64  `mapstructure:"presign_expiry"`
	MemoryBaseURL    string `mapstructure:"memory_base_url"`
	MemorySigningKey string `mapstructure:"memory_signing_key"`
}

// PresignDuration returns the link lifetime as a time.Duration.
func (s *StorageConfig) PresignDuration() time.Duration {
	return time.Duration(s.PresignExpiry) * time.Second
}

// UploadConfig bounds the in-memory upload buffer.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// MaxBytes returns the upload ceiling in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings. An empty origin list disables CORS.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the GATEWAY_ prefix.
// The conventional AWS_* variables are accepted as fallbacks for the storage keys.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":4000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.expose_error_details", true)

	// Storage defaults
	v.SetDefault("storage.provider", ProviderS3)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.kms_key_id", "")
	v.SetDefault("storage.presign_expiry", PresignExpirySeconds)
	v.SetDefault("storage.memory_base_url", "http://localhost:4000/objects")
	v.SetDefault("storage.memory_signing_key", "")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 50)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", "")

	// First name wins when several are set.
	envBindings := map[string][]string{
		"server.port":                 {"GATEWAY_SERVER_PORT"},
		"server.read_timeout":         {"GATEWAY_SERVER_READ_TIMEOUT"},
		"server.write_timeout":        {"GATEWAY_SERVER_WRITE_TIMEOUT"},
		"server.shutdown_timeout":     {"GATEWAY_SERVER_SHUTDOWN_TIMEOUT"},
		"server.environment":          {"GATEWAY_SERVER_ENVIRONMENT"},
		"server.expose_error_details": {"GATEWAY_SERVER_EXPOSE_ERROR_DETAILS"},
		"storage.provider":            {"GATEWAY_STORAGE_PROVIDER"},
		"storage.region":              {"GATEWAY_STORAGE_REGION", "AWS_REGION"},
		"storage.bucket":              {"GATEWAY_STORAGE_BUCKET", "AWS_BUCKET_NAME"},
		"storage.endpoint":            {"GATEWAY_STORAGE_ENDPOINT"},
		"storage.use_ssl":             {"GATEWAY_STORAGE_USE_SSL"},
		"storage.access_key":          {"GATEWAY_STORAGE_ACCESS_KEY", "AWS_ACCESS_KEY_ID"},
		"storage.secret_key":          {"GATEWAY_STORAGE_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"},
		"storage.kms_key_id":          {"GATEWAY_STORAGE_KMS_KEY_ID", "AWS_KMS_KEY_ID"},
		"storage.presign_expiry":      {"GATEWAY_STORAGE_PRESIGN_EXPIRY"},
		"storage.memory_base_url":     {"GATEWAY_STORAGE_MEMORY_BASE_URL"},
		"storage.memory_signing_key":  {"GATEWAY_STORAGE_MEMORY_SIGNING_KEY"},
		"upload.max_file_size_mb":     {"GATEWAY_UPLOAD_MAX_FILE_SIZE_MB"},
		"log.level":                   {"GATEWAY_LOG_LEVEL"},
		"log.format":                  {"GATEWAY_LOG_FORMAT"},
		"cors.allowed_origins":        {"GATEWAY_CORS_ALLOWED_ORIGINS"},
	}
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if GATEWAY_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("GATEWAY_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:               serverPort,
		ReadTimeout:        v.GetDuration("server.read_timeout"),
		WriteTimeout:       v.GetDuration("server.write_timeout"),
		ShutdownTimeout:    v.GetDuration("server.shutdown_timeout"),
		Environment:        v.GetString("server.environment"),
		ExposeErrorDetails: v.GetBool("server.expose_error_details"),
	}
	cfg.Storage = StorageConfig{
		Provider:         strings.ToLower(strings.TrimSpace(v.GetString("storage.provider"))),
		Region:           v.GetString("storage.region"),
		Bucket:           v.GetString("storage.bucket"),
		Endpoint:         v.GetString("storage.endpoint"),
		UseSSL:           v.GetBool("storage.use_ssl"),
		AccessKey:        v.GetString("storage.access_key"),
		SecretKey:        v.GetString("storage.secret_key"),
		KMSKeyID:         v.GetString("storage.kms_key_id"),
		PresignExpiry:    v.GetInt64("storage.presign_expiry"),
		MemoryBaseURL:    v.GetString("storage.memory_base_url"),
		MemorySigningKey: v.GetString("storage.memory_signing_key"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Provider {
	case ProviderS3, ProviderMinio:
		if c.Storage.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.bucket is required for provider %q", c.Storage.Provider))
		}
	case ProviderMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.provider %q", c.Storage.Provider))
	}
	if c.Storage.Provider == ProviderMinio && c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("storage.endpoint is required for provider minio"))
	}
	if c.Storage.PresignExpiry != PresignExpirySeconds {
		errs = append(errs, fmt.Errorf("storage.presign_expiry must be %d, got %d", PresignExpirySeconds, c.Storage.PresignExpiry))
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_file_size_mb must be positive, got %d", c.Upload.MaxFileSizeMB))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
