package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("UPSTREAM_ACCESS_TOKEN", "secret-token")
	t.Setenv("AUTH_PUBLIC_KEY", "cHVibGljLWtleQ==")
	t.Setenv("UPSTREAM_BASE_URL", "https://images.example.com/api/v1/images/")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("STORE_DRIVER", "MEMORY")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Upstream.AccessToken)
	assert.Equal(t, "https://images.example.com/api/v1/images", cfg.Upstream.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "RS256", cfg.Auth.Algorithm)
	assert.Equal(t, "sub", cfg.Auth.OwnerClaim)
	assert.Equal(t, int64(10*1024*1024), cfg.Server.MaxBodyBytes)
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	t.Setenv("UPSTREAM_ACCESS_TOKEN", "")
	t.Setenv("AUTH_PUBLIC_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_ACCESS_TOKEN is required")
	assert.Contains(t, err.Error(), "AUTH_PUBLIC_KEY is required")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080", MaxBodyBytes: 1024},
			Store:    StoreConfig{Driver: StoreDriverMongo, URI: "mongodb://db", Database: "d", Collection: "c"},
			Upstream: UpstreamConfig{Driver: UpstreamDriverHTTP, BaseURL: "https://host", AccessToken: "t"},
			Auth:     AuthConfig{PublicKey: "k", Algorithm: "RS256", OwnerClaim: "sub"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown store driver",
			mutate:  func(c *Config) { c.Store.Driver = "bolt" },
			wantErr: `unknown STORE_DRIVER "bolt"`,
		},
		{
			name:    "s3 upstream without public url",
			mutate:  func(c *Config) { c.Upstream.Driver = UpstreamDriverS3; c.S3.BucketName = "images" },
			wantErr: "S3_PUBLIC_BASE_URL is required",
		},
		{
			name:    "unsupported algorithm",
			mutate:  func(c *Config) { c.Auth.Algorithm = "none" },
			wantErr: `unsupported AUTH_ALGORITHM "none"`,
		},
		{
			name:   "memory store needs no uri",
			mutate: func(c *Config) { c.Store = StoreConfig{Driver: StoreDriverMemory} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
