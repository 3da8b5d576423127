package config

import (
	"strings"
	"time"
)

// ConfigResolver resolves configuration values from multiple sources with precedence
type ConfigResolver struct {
	sources []ConfigSource
}

func NewConfigResolver(sources ...ConfigSource) *ConfigResolver {
	return &ConfigResolver{sources: sources}
}

// ResolveString resolves string value from sources in order of precedence
func (r *ConfigResolver) ResolveString(key, defaultValue string) string {
	for _, source := range r.sources {
		if value, found := source.GetString(key); found {
			return value
		}
	}
	return defaultValue
}

func (r *ConfigResolver) ResolveInt(key string, defaultValue int) int {
	for _, source := range r.sources {
		if value, found := source.GetInt(key); found {
			return value
		}
	}
	return defaultValue
}

func (r *ConfigResolver) ResolveFloat(key string, defaultValue float64) float64 {
	for _, source := range r.sources {
		if value, found := source.GetFloat(key); found {
			return value
		}
	}
	return defaultValue
}

func (r *ConfigResolver) ResolveBool(key string, defaultValue bool) bool {
	for _, source := range r.sources {
		if value, found := source.GetBool(key); found {
			return value
		}
	}
	return defaultValue
}

// ResolveList splits a comma-separated value, dropping empty items.
func (r *ConfigResolver) ResolveList(key string) []string {
	raw := r.ResolveString(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ResolveMillis resolves an integer millisecond value as a duration.
func (r *ConfigResolver) ResolveMillis(key string, defaultMs int) time.Duration {
	return time.Duration(r.ResolveInt(key, defaultMs)) * time.Millisecond
}
