// Package config wraps viper with nil-safe accessors and the CampusHub
// defaults. Modules receive their own config subtree at Init time.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is a nil-safe wrapper around a viper instance. Modules hold
// one for their subtree; a nil Config or nil viper answers every read
// with the zero value.
type Config struct {
	v *viper.Viper
}

// New wraps a viper instance. A nil viper yields a Config that returns
// zero values for every key.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load reads configuration from the given file path (optional), the
// CAMPUSHUB_* environment, and built-in defaults.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8480")
	v.SetDefault("backend.base_url", "http://localhost:4000/api")
	v.SetDefault("backend.timeout", "15s")
	v.SetDefault("backend.rate_limit", 20) // requests/sec against the backend
	v.SetDefault("backend.rate_burst", 40)
	v.SetDefault("store.path", "campushub.db")
	v.SetDefault("screens.debounce", "500ms")

	v.SetEnvPrefix("CAMPUSHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	return v, nil
}

// GetString returns the string value for key, or "" if unset.
func (c *Config) GetString(key string) string {
	if c == nil || c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// GetInt returns the int value for key, or 0 if unset.
func (c *Config) GetInt(key string) int {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

// GetBool returns the bool value for key, or false if unset.
func (c *Config) GetBool(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.GetBool(key)
}

// GetDuration returns the duration value for key, or 0 if unset.
func (c *Config) GetDuration(key string) time.Duration {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

// IsSet reports whether key has a value.
func (c *Config) IsSet(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Sub returns the subtree under key. Never returns nil; a missing key
// yields an empty Config.
func (c *Config) Sub(key string) *Config {
	if c == nil || c.v == nil {
		return New(nil)
	}
	sub := c.v.Sub(key)
	if sub == nil {
		return New(viper.New())
	}
	return New(sub)
}
