package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Lookup helpers for optional variables.  An unset, empty or unparsable
// value yields the default.

func getenv(key, def string) string {
    if v := strings.TrimSpace(os.Getenv(key)); v != "" {
        return v
    }
    return def
}

func envInt(key string, def int) int {
    n, err := strconv.Atoi(getenv(key, ""))
    if err != nil {
        return def
    }
    return n
}

func envDur(key string, def time.Duration) time.Duration {
    d, err := time.ParseDuration(getenv(key, ""))
    if err != nil {
        return def
    }
    return d
}

// envBool accepts strconv.ParseBool spellings plus yes/no and on/off.
func envBool(key string, def bool) bool {
    v := strings.ToLower(getenv(key, ""))
    switch v {
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    b, err := strconv.ParseBool(v)
    if err != nil {
        return def
    }
    return b
}
