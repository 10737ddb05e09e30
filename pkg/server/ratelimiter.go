package server

import (
	"sync"
	"time"
)

// RateLimiter implements per-IP rate limiting with a sliding window
type RateLimiter struct {
	limits            map[string]*RateLimitState
	maxRequestsPerMin int
	mu                sync.Mutex
	cleanupInterval   time.Duration
	stopCleanup       chan struct{}
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxRequestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		limits:            make(map[string]*RateLimitState),
		maxRequestsPerMin: maxRequestsPerMinute,
		cleanupInterval:   5 * time.Minute,
		stopCleanup:       make(chan struct{}),
	}

	go rl.startCleanup()

	return rl
}

// Allow reports whether a request from the given IP is within the limit
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.maxRequestsPerMin <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UnixMilli()

	state, exists := rl.limits[ip]
	if !exists {
		state = &RateLimitState{}
		rl.limits[ip] = state
	}

	// Drop requests older than one minute (sliding window)
	valid := state.Requests[:0]
	for _, reqTime := range state.Requests {
		if now-reqTime < 60_000 {
			valid = append(valid, reqTime)
		}
	}
	state.Requests = valid

	if len(state.Requests) >= rl.maxRequestsPerMin {
		return false
	}

	state.Requests = append(state.Requests, now)
	return true
}

func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now().UnixMilli()
	for ip, state := range rl.limits {
		stale := true
		for _, reqTime := range state.Requests {
			if now-reqTime < 60_000 {
				stale = false
				break
			}
		}
		if stale {
			delete(rl.limits, ip)
		}
	}
}

// Stop terminates the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}
