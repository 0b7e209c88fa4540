package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"POS_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"POS_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"POS_REDIS_ADDR"`
		Password string `yaml:"password" env:"POS_REDIS_PASSWORD"`
	} `yaml:"redis"`
	JWT struct {
		Secret       string `yaml:"secret" env:"POS_JWT_SECRET"`
		ExpiresHours int    `yaml:"expiresHours" env:"POS_JWT_EXPIRES_HOURS"`
	} `yaml:"jwt"`
	Snapshot struct {
		Secret string `yaml:"secret" env:"POS_SNAPSHOT_SECRET"`
	} `yaml:"snapshot"`
	Reporting struct {
		Timezone string `yaml:"timezone" env:"POS_REPORT_TIMEZONE"`
	} `yaml:"reporting"`
	WS struct {
		PingSeconds int `yaml:"pingSeconds" env:"POS_WS_PING_SECONDS"`
	} `yaml:"ws"`
}

// Load reads configuration using the shared loader and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.JWT.ExpiresHours = 8
	cfg.Reporting.Timezone = "Asia/Manila"
	cfg.WS.PingSeconds = 30

	if err := load(cfg); err != nil {
		return nil, err
	}

	if cfg.Database.DSN == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if cfg.Snapshot.Secret == "" {
		return nil, errors.New("config: snapshot secret is required")
	}
	if cfg.JWT.ExpiresHours <= 0 {
		cfg.JWT.ExpiresHours = 8
	}
	if cfg.WS.PingSeconds <= 0 {
		cfg.WS.PingSeconds = 30
	}

	return cfg, nil
}

// HTTPAddress ensures we always return a host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts the configured token lifetime to a duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.JWT.ExpiresHours <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(c.JWT.ExpiresHours) * time.Hour
}

// PingInterval is the websocket keepalive interval.
func (c *Config) PingInterval() time.Duration {
	if c.WS.PingSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WS.PingSeconds) * time.Second
}

// Location resolves the reporting time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Reporting.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
