package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/timmy/r2gate/internal/storage"
)

// MaxPresignExpiry is the longest lifetime SigV4 allows for a presigned URL.
const MaxPresignExpiry = 7 * 24 * 60 * 60

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	RoutePrefix  string        `mapstructure:"route_prefix"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
	// ReadTimeout bounds the whole request including the upload body, so it
	// must cover MaxUploadMB at the slowest client rate you intend to serve.
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// StorageConfig describes the bucket the gateway fronts.
type StorageConfig struct {
	Type          string `mapstructure:"type"`    // r2, s3, s3compatible; empty = detect from endpoint
	Backend       string `mapstructure:"backend"` // s3 (aws-sdk-go-v2) or minio
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	PresignExpiry int    `mapstructure:"presign_expiry"` // seconds
	EnsureBucket  bool   `mapstructure:"ensure_bucket"`
}

type IngestConfig struct {
	Workers int `mapstructure:"workers"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// GetStorageConfig converts the storage section into backend settings.
func (c *Config) GetStorageConfig() *storage.S3Config {
	return &storage.S3Config{
		Type:      storage.StorageType(c.Storage.Type),
		Backend:   storage.Backend(c.Storage.Backend),
		Endpoint:  c.Storage.Endpoint,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
		UseSSL:    c.Storage.UseSSL,
		Bucket:    c.Storage.Bucket,
		Region:    c.Storage.Region,
	}
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.route_prefix", "/r2")
	v.SetDefault("server.max_upload_mb", 100)
	v.SetDefault("server.read_timeout", "15m")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("storage.type", "")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.presign_expiry", 3600)
	v.SetDefault("storage.ensure_bucket", false)
	v.SetDefault("ingest.workers", 4)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind the conventional R2 variable names; the first name set wins.
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")
	_ = v.BindEnv("server.mode", "GIN_MODE", "SERVER_MODE")
	_ = v.BindEnv("server.route_prefix", "ROUTE_PREFIX")
	_ = v.BindEnv("server.max_upload_mb", "MAX_UPLOAD_MB")
	_ = v.BindEnv("storage.type", "STORAGE_TYPE")
	_ = v.BindEnv("storage.backend", "STORAGE_BACKEND")
	_ = v.BindEnv("storage.endpoint", "R2_ENDPOINT", "STORAGE_ENDPOINT")
	_ = v.BindEnv("storage.access_key", "R2_ACCESS_KEY_ID", "STORAGE_ACCESS_KEY")
	_ = v.BindEnv("storage.secret_key", "R2_SECRET_ACCESS_KEY", "STORAGE_SECRET_KEY")
	_ = v.BindEnv("storage.bucket", "R2_BUCKET_NAME", "STORAGE_BUCKET")
	_ = v.BindEnv("storage.region", "R2_REGION", "STORAGE_REGION")
	_ = v.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	_ = v.BindEnv("storage.presign_expiry", "PRESIGN_EXPIRY")
	_ = v.BindEnv("storage.ensure_bucket", "STORAGE_ENSURE_BUCKET")
	_ = v.BindEnv("ingest.workers", "INGEST_WORKERS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// An explicit scheme on the endpoint overrides use_ssl.
	switch {
	case strings.HasPrefix(cfg.Storage.Endpoint, "https://"):
		cfg.Storage.UseSSL = true
	case strings.HasPrefix(cfg.Storage.Endpoint, "http://"):
		cfg.Storage.UseSSL = false
	}
	cfg.Server.RoutePrefix = "/" + strings.Trim(cfg.Server.RoutePrefix, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("storage.endpoint is required (R2_ENDPOINT)"))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required (R2_BUCKET_NAME)"))
	}
	if c.Storage.AccessKey == "" {
		errs = append(errs, errors.New("storage.access_key is required (R2_ACCESS_KEY_ID)"))
	}
	if c.Storage.SecretKey == "" {
		errs = append(errs, errors.New("storage.secret_key is required (R2_SECRET_ACCESS_KEY)"))
	}
	switch c.Storage.Backend {
	case "s3", "minio":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be s3 or minio, got %q", c.Storage.Backend))
	}
	if c.Storage.PresignExpiry < 1 || c.Storage.PresignExpiry > MaxPresignExpiry {
		errs = append(errs, fmt.Errorf("storage.presign_expiry must be between 1 and %d seconds", MaxPresignExpiry))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, errors.New("server.max_upload_mb must be positive"))
	}
	if c.Ingest.Workers < 1 {
		errs = append(errs, errors.New("ingest.workers must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
