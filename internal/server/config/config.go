// Package config loads sessiond configuration from a YAML file with
// environment-variable overrides. Env values take precedence over the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved sessiond settings.
type Config struct {
	ListenAddr         string
	DatabaseDSN        string
	JWTSecret          string
	TokenValidity      time.Duration
	SessionURIValidity time.Duration

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// rawConfig mirrors the YAML file. Durations are Go duration strings
// ("12h", "168h").
type rawConfig struct {
	ListenAddr         string `yaml:"listen_addr"`
	DatabaseDSN        string `yaml:"database_dsn"`
	JWTSecret          string `yaml:"jwt_secret"`
	TokenValidity      string `yaml:"token_validity"`
	SessionURIValidity string `yaml:"session_uri_validity"`

	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	S3BaseEndpoint string `yaml:"s3_base_endpoint"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:         ":8080",
		TokenValidity:      12 * time.Hour,
		SessionURIValidity: 7 * 24 * time.Hour,
		S3Region:           "us-east-1",
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist) and then applies CAPSYNC_* env overrides.
func Load(path string) (*Config, error) {
	c := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config read: %w", err)
		}
		if err == nil {
			var raw rawConfig
			if err := yaml.Unmarshal(b, &raw); err != nil {
				return nil, fmt.Errorf("config parse: %w", err)
			}
			if err := applyRaw(c, &raw); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(c)

	if c.JWTSecret == "" {
		return nil, fmt.Errorf("config: jwt_secret is required")
	}
	if c.DatabaseDSN == "" {
		return nil, fmt.Errorf("config: database_dsn is required")
	}

	return c, nil
}

func applyRaw(c *Config, raw *rawConfig) error {
	if raw.ListenAddr != "" {
		c.ListenAddr = raw.ListenAddr
	}
	if raw.DatabaseDSN != "" {
		c.DatabaseDSN = raw.DatabaseDSN
	}
	if raw.JWTSecret != "" {
		c.JWTSecret = raw.JWTSecret
	}
	if raw.TokenValidity != "" {
		d, err := time.ParseDuration(raw.TokenValidity)
		if err != nil {
			return fmt.Errorf("config: token_validity: %w", err)
		}
		c.TokenValidity = d
	}
	if raw.SessionURIValidity != "" {
		d, err := time.ParseDuration(raw.SessionURIValidity)
		if err != nil {
			return fmt.Errorf("config: session_uri_validity: %w", err)
		}
		c.SessionURIValidity = d
	}
	if raw.S3AccessKey != "" {
		c.S3AccessKey = raw.S3AccessKey
	}
	if raw.S3SecretKey != "" {
		c.S3SecretKey = raw.S3SecretKey
	}
	if raw.S3Bucket != "" {
		c.S3Bucket = raw.S3Bucket
	}
	if raw.S3Region != "" {
		c.S3Region = raw.S3Region
	}
	if raw.S3BaseEndpoint != "" {
		c.S3BaseEndpoint = raw.S3BaseEndpoint
	}
	return nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("CAPSYNC_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("CAPSYNC_DATABASE_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := os.Getenv("CAPSYNC_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("CAPSYNC_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TokenValidity = d
		}
	}
	if v := os.Getenv("CAPSYNC_SESSION_URI_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SessionURIValidity = d
		}
	}
	if v := os.Getenv("CAPSYNC_S3_ACCESS_KEY"); v != "" {
		c.S3AccessKey = v
	}
	if v := os.Getenv("CAPSYNC_S3_SECRET_KEY"); v != "" {
		c.S3SecretKey = v
	}
	if v := os.Getenv("CAPSYNC_S3_BUCKET"); v != "" {
		c.S3Bucket = v
	}
	if v := os.Getenv("CAPSYNC_S3_REGION"); v != "" {
		c.S3Region = v
	}
	if v := os.Getenv("CAPSYNC_S3_BASE_ENDPOINT"); v != "" {
		c.S3BaseEndpoint = v
	}
}
