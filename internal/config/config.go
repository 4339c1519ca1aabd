package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the status loop. The pull timeout stays below the interval.
const (
	DefaultInterval    = 2000 * time.Millisecond
	DefaultPullTimeout = 1000 * time.Millisecond
	DefaultAckTimeout  = 2 * time.Second
	DefaultWSPath      = "/ws"
	DefaultLogFile     = "logs/pidash.log"
	DefaultLogLevel    = "info"
)

// Config holds all configuration for pidash.
type Config struct {
	// Device connection settings
	DeviceURL          string
	WSPath             string
	DisablePush        bool
	InsecureSkipVerify bool

	// Sync behaviour
	Interval    time.Duration
	PullTimeout time.Duration
	AckTimeout  time.Duration

	// Logging
	LogFile  string
	LogLevel string
}

// LoadEnv loads .env from the working directory when present. A missing file
// is not an error; the process environment is used as is.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// FromEnv builds a Config from PIDASH_* environment variables and defaults.
// It does not validate; callers apply flag overrides first and then call Validate.
func FromEnv() (*Config, error) {
	interval, err := durationEnv("PIDASH_INTERVAL", DefaultInterval)
	if err != nil {
		return nil, err
	}
	pullTimeout, err := durationEnv("PIDASH_PULL_TIMEOUT", DefaultPullTimeout)
	if err != nil {
		return nil, err
	}

	return &Config{
		DeviceURL:   os.Getenv("PIDASH_URL"),
		WSPath:      getEnv("PIDASH_WS_PATH", DefaultWSPath),
		DisablePush: os.Getenv("PIDASH_NO_PUSH") == "1",
		Interval:    interval,
		PullTimeout: pullTimeout,
		AckTimeout:  DefaultAckTimeout,
		LogFile:     getEnv("PIDASH_LOG_FILE", DefaultLogFile),
		LogLevel:    getEnv("PIDASH_LOG_LEVEL", DefaultLogLevel),
	}, nil
}

// Validate checks that the configuration is usable and normalises DeviceURL.
func (c *Config) Validate() error {
	if c.DeviceURL == "" {
		return fmt.Errorf("device URL is required (argument or PIDASH_URL)")
	}
	u, err := url.Parse(c.DeviceURL)
	if err != nil {
		return fmt.Errorf("invalid device URL %q: %w", c.DeviceURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("invalid device URL %q: host is required", c.DeviceURL)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.PullTimeout <= 0 {
		return fmt.Errorf("pull timeout must be positive")
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.WSPath == "" || c.WSPath[0] != '/' {
		return fmt.Errorf("websocket path %q must start with /", c.WSPath)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	c.DeviceURL = u.String()
	return nil
}

// WebSocketURL derives the push channel URL from DeviceURL and WSPath.
func (c *Config) WebSocketURL() string {
	u, err := url.Parse(c.DeviceURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.WSPath
	return u.String()
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
