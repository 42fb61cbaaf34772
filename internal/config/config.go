// Package config reads socialblog settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment variables.
const (
	EnvAPIURL        = "SOCIALBLOG_API_URL"
	EnvHome          = "SOCIALBLOG_HOME"
	EnvLogLevel      = "SOCIALBLOG_LOG_LEVEL"
	EnvTimeout       = "SOCIALBLOG_TIMEOUT"
	EnvPassword      = "SOCIALBLOG_PASSWORD"
	EnvDevAddr       = "SOCIALBLOG_DEV_ADDR"
	EnvDevSecret     = "SOCIALBLOG_DEV_SECRET"
	EnvDevAccessTTL  = "SOCIALBLOG_DEV_ACCESS_TTL"
	EnvDevRefreshTTL = "SOCIALBLOG_DEV_REFRESH_TTL"
)

const (
	DefaultAPIURL  = "http://localhost:2011"
	DefaultDevAddr = ":2011"
)

// Config is the client configuration.
type Config struct {
	APIURL   string
	Home     string
	LogLevel zerolog.Level
	Timeout  time.Duration
}

// SessionFile is where the session store lives.
func (c Config) SessionFile() string { return filepath.Join(c.Home, "session.json") }

// LogFile is where the client writes its log.
func (c Config) LogFile() string { return filepath.Join(c.Home, "socialblog.log") }

// Load reads the client configuration.
func Load() (Config, error) {
	home := envString(EnvHome, "")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: get home dir: %w", err)
		}
		home = filepath.Join(dir, ".socialblog")
	}

	level, err := parseLevel(envString(EnvLogLevel, "info"))
	if err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}

	return Config{
		APIURL:   strings.TrimRight(envString(EnvAPIURL, DefaultAPIURL), "/"),
		Home:     home,
		LogLevel: level,
		Timeout:  envDuration(EnvTimeout, 30*time.Second),
	}, nil
}

// DevServer is the development API server configuration.
type DevServer struct {
	Addr       string
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	LogLevel   zerolog.Level
}

// LoadDevServer reads the development server configuration.
func LoadDevServer() (DevServer, error) {
	level, err := parseLevel(envString(EnvLogLevel, "info"))
	if err != nil {
		return DevServer{}, fmt.Errorf("config.LoadDevServer: %w", err)
	}
	return DevServer{
		Addr:       envString(EnvDevAddr, DefaultDevAddr),
		Secret:     envString(EnvDevSecret, ""),
		AccessTTL:  envDuration(EnvDevAccessTTL, 15*time.Minute),
		RefreshTTL: envDuration(EnvDevRefreshTTL, 7*24*time.Hour),
		LogLevel:   level,
	}, nil
}

func parseLevel(s string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse %s: %w", EnvLogLevel, err)
	}
	if level == zerolog.NoLevel {
		return zerolog.InfoLevel, nil
	}
	return level, nil
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
