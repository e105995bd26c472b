package ratelimit

import (
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/sessions/" matches "/sessions/{id}/ask"
// when Suffix is "/ask").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Special case: health check endpoint is unlimited
	if path == "/health" && method == "GET" {
		return &EndpointConfig{Key: "health"}
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && strings.HasSuffix(path, config.Suffix) {
			return config
		}
	}

	return nil
}
