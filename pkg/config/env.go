// Package config reads plain values from the environment without validation.
package config

import (
	"os"
	"strings"
)

// GetEnvString returns the trimmed value of key, or defaultValue when unset or blank.
//
//	addr := GetEnvString("HTTP_ADDR", ":8080")
func GetEnvString(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvStringList splits a comma-separated value, dropping blank entries.
// defaultValue is returned when nothing remains.
//
//	// TRUSTED_PROXIES="10.0.0.0/8, 172.16.0.0/12"
//	proxies := GetEnvStringList("TRUSTED_PROXIES", nil) // ["10.0.0.0/8" "172.16.0.0/12"]
func GetEnvStringList(key string, defaultValue []string) []string {
	parts := strings.Split(os.Getenv(key), ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
