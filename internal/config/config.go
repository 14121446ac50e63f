package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	UpstreamDriverHTTP = "http"
	UpstreamDriverS3   = "s3"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Upstream   UpstreamConfig
	S3         S3Config
	Auth       AuthConfig
	Validation ValidationConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	Driver     string
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// UpstreamConfig addresses the external image host.
type UpstreamConfig struct {
	Driver      string
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
	PublicBaseURL   string
}

// AuthConfig holds the JWT verification settings. PublicKey is the base64
// encoding of a PEM public key, or of the shared secret for HS256.
type AuthConfig struct {
	PublicKey  string
	Algorithm  string
	OwnerClaim string
}

type ValidationConfig struct {
	LooseContentTypes bool
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MAX_BODY_BYTES", 10*1024*1024) // 10MB
	viper.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30*time.Second)
	viper.SetDefault("STORE_DRIVER", StoreDriverMongo)
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "resource-service")
	viper.SetDefault("MONGO_COLLECTION", "images")
	viper.SetDefault("MONGO_TIMEOUT", 10*time.Second)
	viper.SetDefault("UPSTREAM_DRIVER", UpstreamDriverHTTP)
	viper.SetDefault("UPSTREAM_BASE_URL", "https://courselab.lnu.se/picture-it/images/api/v1/images")
	viper.SetDefault("UPSTREAM_TIMEOUT", 15*time.Second)
	viper.SetDefault("S3_ENDPOINT", "http://localhost:9000")
	viper.SetDefault("S3_ACCESS_KEY_ID", "minioadmin")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "minioadmin")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("S3_BUCKET_NAME", "images")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("AUTH_ALGORITHM", "RS256")
	viper.SetDefault("AUTH_OWNER_CLAIM", "sub")
	viper.SetDefault("VALIDATION_LOOSE_CONTENT_TYPES", false)
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("SERVER_HOST"),
			Port:         viper.GetString("SERVER_PORT"),
			MaxBodyBytes: viper.GetInt64("SERVER_MAX_BODY_BYTES"),
			ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(viper.GetString("STORE_DRIVER")),
			URI:        viper.GetString("MONGO_URI"),
			Database:   viper.GetString("MONGO_DATABASE"),
			Collection: viper.GetString("MONGO_COLLECTION"),
			Timeout:    viper.GetDuration("MONGO_TIMEOUT"),
		},
		Upstream: UpstreamConfig{
			Driver:      strings.ToLower(viper.GetString("UPSTREAM_DRIVER")),
			BaseURL:     strings.TrimRight(viper.GetString("UPSTREAM_BASE_URL"), "/"),
			AccessToken: viper.GetString("UPSTREAM_ACCESS_TOKEN"),
			Timeout:     viper.GetDuration("UPSTREAM_TIMEOUT"),
		},
		S3: S3Config{
			Endpoint:        viper.GetString("S3_ENDPOINT"),
			AccessKeyID:     viper.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("S3_SECRET_ACCESS_KEY"),
			UseSSL:          viper.GetBool("S3_USE_SSL"),
			BucketName:      viper.GetString("S3_BUCKET_NAME"),
			Region:          viper.GetString("S3_REGION"),
			PublicBaseURL:   strings.TrimRight(viper.GetString("S3_PUBLIC_BASE_URL"), "/"),
		},
		Auth: AuthConfig{
			PublicKey:  viper.GetString("AUTH_PUBLIC_KEY"),
			Algorithm:  strings.ToUpper(viper.GetString("AUTH_ALGORITHM")),
			OwnerClaim: viper.GetString("AUTH_OWNER_CLAIM"),
		},
		Validation: ValidationConfig{
			LooseContentTypes: viper.GetBool("VALIDATION_LOOSE_CONTENT_TYPES"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("SERVER_MAX_BODY_BYTES must be positive"))
	}

	switch c.Store.Driver {
	case StoreDriverMongo:
		if c.Store.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required"))
		}
		if c.Store.Database == "" || c.Store.Collection == "" {
			errs = append(errs, errors.New("MONGO_DATABASE and MONGO_COLLECTION are required"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Upstream.Driver {
	case UpstreamDriverHTTP:
		if c.Upstream.BaseURL == "" {
			errs = append(errs, errors.New("UPSTREAM_BASE_URL is required"))
		}
		if c.Upstream.AccessToken == "" {
			errs = append(errs, errors.New("UPSTREAM_ACCESS_TOKEN is required"))
		}
	case UpstreamDriverS3:
		if c.S3.BucketName == "" {
			errs = append(errs, errors.New("S3_BUCKET_NAME is required"))
		}
		if c.S3.PublicBaseURL == "" {
			errs = append(errs, errors.New("S3_PUBLIC_BASE_URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPSTREAM_DRIVER %q", c.Upstream.Driver))
	}

	if c.Auth.PublicKey == "" {
		errs = append(errs, errors.New("AUTH_PUBLIC_KEY is required"))
	}
	switch c.Auth.Algorithm {
	case "RS256", "ES256", "HS256":
	default:
		errs = append(errs, fmt.Errorf("unsupported AUTH_ALGORITHM %q", c.Auth.Algorithm))
	}
	if c.Auth.OwnerClaim == "" {
		errs = append(errs, errors.New("AUTH_OWNER_CLAIM is required"))
	}

	return errors.Join(errs...)
}
