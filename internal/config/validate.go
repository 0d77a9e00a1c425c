package config

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
)

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate performs business-rule validation on the loaded
// configuration. It must be called after loading; Load calls it
// automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, none (got %q)", c.Cache.Backend)
	}

	for _, p := range c.Cache.Denylist {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("cache.denylist pattern %q: %w", p, err)
		}
	}

	if _, err := c.Cache.DecodeEncryptionKey(); err != nil {
		return fmt.Errorf("cache.encryption_key: %w", err)
	}

	if !slices.Contains(validLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of %v (got %q)", validLevels, c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}

	return nil
}

// DecodeEncryptionKey returns the configured key bytes, nil when the
// key is unset.
func (c CacheConfig) DecodeEncryptionKey() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
