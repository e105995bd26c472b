package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// frozen returns a limiter whose clock only moves when advance is called.
func frozen(config *Config) (*Limiter, func(time.Duration)) {
	l := NewLimiter(config)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	l.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	return l, func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := frozen(&Config{Enabled: true, RPS: 1, Burst: 10})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/sessions", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
		if info.Remaining != 9-i {
			t.Errorf("Expected remaining %d, got %d", 9-i, info.Remaining)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/sessions", "POST")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", info.Remaining)
	}
	if info.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}
	if !info.ResetTime.After(limiter.now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter, advance := frozen(&Config{Enabled: true, RPS: 1, Burst: 2})
	defer limiter.Stop()

	limiter.Allow("c", "/x", "GET")
	limiter.Allow("c", "/x", "GET")
	if allowed, _ := limiter.Allow("c", "/x", "GET"); allowed {
		t.Fatal("Expected bucket to be empty")
	}

	advance(time.Second)
	if allowed, _ := limiter.Allow("c", "/x", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	if allowed, _ := limiter.Allow("c", "/x", "GET"); allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_DeniedRequestsDoNotConsume(t *testing.T) {
	limiter, advance := frozen(&Config{Enabled: true, RPS: 1, Burst: 1})
	defer limiter.Stop()

	limiter.Allow("c", "/x", "GET")
	for i := 0; i < 5; i++ {
		limiter.Allow("c", "/x", "GET")
	}
	advance(time.Second)
	if allowed, _ := limiter.Allow("c", "/x", "GET"); !allowed {
		t.Error("Denied requests must not push the next token further out")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(NewConfig(0, 0))
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/retrieve", "POST"); !allowed {
			t.Fatalf("Expected request %d to be allowed when disabled", i+1)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := frozen(NewConfig(2, 10))
	defer limiter.Stop()

	// Model calls share a bucket across sessions.
	for i := 0; i < 2; i++ {
		path := fmt.Sprintf("/sessions/%d/roadmap", i)
		if allowed, _ := limiter.Allow("c", path, "POST"); !allowed {
			t.Errorf("Expected roadmap request %d to be allowed", i+1)
		}
	}
	if allowed, info := limiter.Allow("c", "/sessions/other/roadmap", "POST"); allowed || info.Limit != 2 {
		t.Errorf("Expected third roadmap request to be denied with limit 2, got allowed=%v limit=%d", allowed, info.Limit)
	}
	// The streaming variant draws from the same bucket.
	if allowed, _ := limiter.Allow("c", "/sessions/other/roadmap/stream", "POST"); allowed {
		t.Error("Expected streamed roadmap to share the exhausted roadmap bucket")
	}

	// A different endpoint keeps its own bucket.
	if allowed, _ := limiter.Allow("c", "/sessions/abc/ask", "POST"); !allowed {
		t.Error("Expected ask to be allowed")
	}
	if allowed, info := limiter.Allow("c", "/sessions/abc", "GET"); !allowed || info.Limit != 10 {
		t.Errorf("Expected default bucket with limit 10, got allowed=%v limit=%d", allowed, info.Limit)
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter, _ := frozen(&Config{Enabled: true, RPS: 1, Burst: 1})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		if allowed, _ := limiter.Allow("c", "/health", "GET"); !allowed {
			t.Fatal("Expected health check to be unlimited")
		}
	}
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter, _ := frozen(&Config{Enabled: true, RPS: 1, Burst: 1})
	defer limiter.Stop()

	limiter.Allow("a", "/x", "GET")
	if allowed, _ := limiter.Allow("b", "/x", "GET"); !allowed {
		t.Error("Expected a second client to have its own bucket")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := frozen(&Config{Enabled: true, RPS: 1, Burst: 100})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("c", "/x", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 100 {
		t.Errorf("Expected exactly 100 allowed requests, got %d", allowed)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter, advance := frozen(&Config{Enabled: true, RPS: 1, Burst: 1})
	defer limiter.Stop()

	limiter.Allow("old", "/x", "GET")
	advance(2 * time.Hour)
	limiter.Allow("new", "/x", "GET")

	if removed := limiter.cleanupBuckets(limiter.now().Add(-time.Hour)); removed != 1 {
		t.Errorf("Expected 1 bucket removed, got %d", removed)
	}
	if len(limiter.buckets) != 1 {
		t.Errorf("Expected 1 bucket left, got %d", len(limiter.buckets))
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()
	limiter.Stop()

	if !limiter.config.Enabled || limiter.config.RPS != DefaultRPS {
		t.Errorf("Expected default config, got %+v", limiter.config)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs(4)
	tests := []struct {
		path, method, want string
	}{
		{"/health", "GET", "health"},
		{"/retrieve", "POST", "retrieve"},
		{"/sessions/123/ask", "POST", "ask"},
		{"/sessions/123/resume", "POST", "resume"},
		{"/sessions/123/roadmap", "POST", "roadmap"},
		{"/sessions/123/roadmap/stream", "POST", "roadmap"},
		{"/sessions/123/roadmap", "GET", ""},
		{"/sessions/123/ask", "GET", ""},
		{"/sessions", "POST", ""},
	}
	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		key := ""
		if got != nil {
			key = got.Key
		}
		if key != tt.want {
			t.Errorf("MatchEndpoint(%q, %q) = %q, want %q", tt.path, tt.method, key, tt.want)
		}
	}
}
