package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom is LoadConfig with a custom variable lookup.
func LoadConfigFrom(getenv func(string) string) *Config {
	e := env(getenv)
	if !e.boolVal("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    e.intVal("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   e.durationVal("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: e.durationVal("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: endpointConfigs(e),
	}
}

// DefaultEndpointConfigs returns the endpoint limits with environment overrides applied.
func DefaultEndpointConfigs() []EndpointConfig {
	return endpointConfigs(env(os.Getenv))
}

func endpointConfigs(e env) []EndpointConfig {
	generate := e.intVal("RATE_LIMIT_GENERATE_LIMIT", 30)
	loop := e.intVal("RATE_LIMIT_LOOP_LIMIT", 30)
	evaluate := e.intVal("RATE_LIMIT_EVALUATE_LIMIT", 60)
	read := e.intVal("RATE_LIMIT_READ_LIMIT", 300)

	return []EndpointConfig{
		// model calls
		{Path: "/generate", Method: "POST", Limit: generate, Window: time.Minute, Burst: 5},
		{Path: "/generate/loop", Method: "POST", Limit: loop, Window: time.Minute, Burst: 5},
		{Path: "/evaluate", Method: "POST", Limit: evaluate, Window: time.Minute, Burst: 10},

		{Path: "/config", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},

		// polling reads
		{Path: "/stream/", Method: "GET", Limit: read, Window: time.Minute, Burst: 30},
		{Path: "/generate/stream/", Method: "GET", Limit: read, Window: time.Minute, Burst: 30},
		{Path: "/tasks/", Method: "GET", Limit: read, Window: time.Minute, Burst: 30},
	}
}

// env reads typed values, falling back to the default on absent or malformed input.
type env func(string) string

func (e env) intVal(key string, def int) int {
	if n, err := strconv.Atoi(e(key)); err == nil {
		return n
	}
	return def
}

func (e env) boolVal(key string, def bool) bool {
	if b, err := strconv.ParseBool(e(key)); err == nil {
		return b
	}
	return def
}

func (e env) durationVal(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e(key)); err == nil {
		return d
	}
	return def
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
