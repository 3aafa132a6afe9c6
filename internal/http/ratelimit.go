package http

import (
	"sync"
	"time"
)

const (
	mutationsPerMinute = 30
	limiterStaleAfter  = 3 * time.Minute
)

// rateLimiter throttles mutating requests per client IP using a sliding
// one-minute window. Read-only traffic is never throttled.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	stop    chan struct{}
	once    sync.Once
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string][]time.Time),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	recent := rl.clients[clientIP][:0]
	for _, ts := range rl.clients[clientIP] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= mutationsPerMinute {
		rl.clients[clientIP] = recent
		if metrics != nil {
			metrics.recordRateLimited()
		}
		return false
	}

	rl.clients[clientIP] = append(recent, now)
	return true
}

func (rl *rateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-limiterStaleAfter)
	for ip, stamps := range rl.clients {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) close() {
	rl.once.Do(func() { close(rl.stop) })
}
