// Package ratelimit provides per-client, per-endpoint rate limiting on top of x/time/rate token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter manages rate limiting for multiple clients.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu         sync.Mutex
	buckets    map[string]*rate.Limiter
	lastAccess map[string]time.Time

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = NewConfig(DefaultRPS, DefaultBurst)
	}

	limiter := &Limiter{
		config:     config,
		now:        time.Now,
		buckets:    make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	ep := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if ep == nil {
		ep = &EndpointConfig{Key: "default", RPS: l.config.RPS, Burst: l.config.Burst}
	}
	// Unlimited endpoint (health check)
	if ep.RPS <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	bucket := l.getBucket(clientID+":"+ep.Key+":"+method, ep, now)

	burst := bucket.Burst()
	reservation := bucket.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	allowed := reservation.OK() && delay == 0
	if !allowed {
		reservation.CancelAt(now)
	}

	tokens := bucket.TokensAt(now)
	remaining := max(int(tokens), 0)
	reset := now
	if missing := float64(burst) - tokens; missing > 0 {
		reset = now.Add(time.Duration(missing / ep.RPS * float64(time.Second)))
	}

	return allowed, Info{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  remaining,
		ResetTime:  reset,
		RetryAfter: delay,
	}
}

func (l *Limiter) getBucket(key string, ep *EndpointConfig, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastAccess[key] = now
	if bucket, ok := l.buckets[key]; ok {
		return bucket
	}
	burst := ep.Burst
	if burst <= 0 {
		burst = max(int(ep.RPS), 1)
	}
	bucket := rate.NewLimiter(rate.Limit(ep.RPS), burst)
	l.buckets[key] = bucket
	return bucket
}

func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets(l.now().Add(-time.Hour))
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets not used since cutoff.
func (l *Limiter) cleanupBuckets(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
			removed++
		}
	}
	return removed
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}
