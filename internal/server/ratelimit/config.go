package ratelimit

import "time"

// Defaults used when no configuration is supplied.
const (
	DefaultRPS   = 2.0
	DefaultBurst = 10
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	RPS             float64 // default tokens per second per client
	Burst           int
	CleanupInterval time.Duration
	EndpointConfigs []EndpointConfig
}

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Key    string  // bucket name shared by every path the entry matches
	Path   string  // Endpoint path pattern (supports prefix and suffix matching)
	Suffix string  // optional required suffix for prefix matches
	Method string  // HTTP method (GET, POST, etc.)
	RPS    float64 // tokens per second; 0 means unlimited
	Burst  int     // Burst capacity
}

// NewConfig builds the server's limiter configuration from the default client rate.
// A non-positive rps disables limiting.
func NewConfig(rps float64, burst int) *Config {
	if rps <= 0 {
		return &Config{Enabled: false}
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Config{
		Enabled:         true,
		RPS:             rps,
		Burst:           burst,
		CleanupInterval: 5 * time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(rps),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
// Calls that reach the language model get a quarter of the default rate.
func DefaultEndpointConfigs(rps float64) []EndpointConfig {
	model := rps / 4
	return []EndpointConfig{
		// Tier 1: model calls
		{Key: "ask", Path: "/sessions/", Suffix: "/ask", Method: "POST", RPS: model, Burst: 3},
		{Key: "roadmap", Path: "/sessions/", Suffix: "/roadmap", Method: "POST", RPS: model, Burst: 2},
		{Key: "roadmap", Path: "/sessions/", Suffix: "/roadmap/stream", Method: "POST", RPS: model, Burst: 2},
		{Key: "resume", Path: "/sessions/", Suffix: "/resume", Method: "POST", RPS: model, Burst: 2},

		// Tier 2: embedding only
		{Key: "retrieve", Path: "/retrieve", Method: "POST", RPS: rps, Burst: 5},

		// Everything else uses the default; /health is unlimited in the matcher.
	}
}
