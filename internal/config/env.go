package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func setString(dst *string, varName string) {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		*dst = v
	}
}

// envParse returns fallback when varName is unset or blank.
func envParse[T any](varName string, fallback T, parse func(string) (T, error)) (T, error) {
	raw := strings.TrimSpace(os.Getenv(varName))
	if raw == "" {
		return fallback, nil
	}
	v, err := parse(raw)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("invalid %s=%q: %w", varName, raw, err)
	}
	return v, nil
}

func envInt(varName string, fallback int) (int, error) {
	return envParse(varName, fallback, strconv.Atoi)
}

func envFloat(varName string, fallback float64) (float64, error) {
	return envParse(varName, fallback, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	return envParse(varName, fallback, time.ParseDuration)
}

// splitCSV splits a comma separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
