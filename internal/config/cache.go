package config

import "time"

// CacheConfig defines settings for the in-process airplane geometry cache.
// Geometry (type, rows, columns) never changes after an airplane is created,
// so entries can live long.  Occupancy is never cached.  When Enabled is
// false every lookup goes to the database.
type CacheConfig struct {
    Enabled         bool
    TTL             time.Duration
    CleanupInterval time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:         envBool("CACHE_ENABLED", true),
        TTL:             envDur("CACHE_TTL", 10*time.Minute),
        CleanupInterval: envDur("CACHE_CLEANUP_INTERVAL", 20*time.Minute),
    }
    if cfg.CleanupInterval < cfg.TTL {
        cfg.CleanupInterval = 2 * cfg.TTL
    }
    return cfg
}
