package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// GetEnvOrDefault returns the value of env, or defaultVal when it is unset
func GetEnvOrDefault(env, defaultVal string) string {
	e := os.Getenv(env)
	if e == "" {
		return defaultVal
	}
	return e
}

// GetEnvOrDefaultInt parses env as an integer
func GetEnvOrDefaultInt(env string, defaultVal int64) (int64, error) {
	e := os.Getenv(env)
	if e == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseInt(e, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s=%q as integer: %w", env, e, err)
	}
	return v, nil
}

// GetEnvOrDefaultBool parses env as a boolean
func GetEnvOrDefaultBool(env string, defaultVal bool) (bool, error) {
	e := os.Getenv(env)
	if e == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseBool(e)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s=%q as boolean: %w", env, e, err)
	}
	return v, nil
}

// GetEnvOrDefaultDuration parses env as a duration ("500ms", "3s")
func GetEnvOrDefaultDuration(env string, defaultVal time.Duration) (time.Duration, error) {
	e := os.Getenv(env)
	if e == "" {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(e)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s=%q as duration: %w", env, e, err)
	}
	return v, nil
}
