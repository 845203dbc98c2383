package config

import (
	"fmt"
	"time"
)

// Keys lists the settings reachable through GetValue and SetValue.
var Keys = []string{"prefix", "cache_dir", "http_timeout", "user_agent", "log_level", "log_format", "tap_dir"}

// SetValue sets a configuration value by key
// Supported keys:
//   - prefix: string - Homebrew prefix
//   - cache_dir: string - Path to the tarball cache directory
//   - http_timeout: duration - e.g. 30s, 1m
//   - user_agent: string - User-Agent sent with downloads
//   - log_level: string - Logging level (debug, info, warn, error)
//   - log_format: string - text or json
//   - tap_dir: string - Path to the tap checkout
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "prefix":
		c.Settings.Prefix = value
	case "cache_dir":
		c.Settings.CacheDir = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.HTTPTimeout = d
	case "user_agent":
		c.Settings.UserAgent = value
	case "log_level":
		c.Settings.LogLevel = value
	case "log_format":
		c.Settings.LogFormat = value
	case "tap_dir":
		c.Tap.Dir = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return c.Validate()
}

// GetValue returns the value as a string and any error encountered.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "prefix":
		return c.GetPrefix(), nil
	case "cache_dir":
		return c.GetCacheDir()
	case "http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "user_agent":
		return c.Settings.UserAgent, nil
	case "log_level":
		return c.Settings.LogLevel, nil
	case "log_format":
		return c.Settings.LogFormat, nil
	case "tap_dir":
		return c.Tap.Dir, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}
