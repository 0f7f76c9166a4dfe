package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type attemptData struct {
	count        int
	firstAttempt time.Time
}

// RateLimiter blocks a client IP for a while after too many recorded
// failures inside a window.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptData
	blocked  map[string]time.Time

	maxAttempts   int
	window        time.Duration
	blockDuration time.Duration
	now           func() time.Time
}

const maxTrackedIPs = 10000

func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RateLimiter{
		attempts:      make(map[string]*attemptData),
		blocked:       make(map[string]time.Time),
		maxAttempts:   maxAttempts,
		window:        window,
		blockDuration: window,
		now:           time.Now,
	}
}

// Allow returns false if the IP is currently blocked.
// It also cleans up expired blocks.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if unblockTime, ok := l.blocked[ip]; ok {
		if l.now().Before(unblockTime) {
			return false
		}
		delete(l.blocked, ip)
		delete(l.attempts, ip)
	}
	return true
}

// RecordFailure increments the failure count and blocks if threshold reached.
func (l *RateLimiter) RecordFailure(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.attempts) > maxTrackedIPs {
		l.evictStale(now)
	}

	data, exists := l.attempts[ip]
	if !exists || now.Sub(data.firstAttempt) > l.window {
		data = &attemptData{firstAttempt: now}
		l.attempts[ip] = data
	}
	data.count++
	if data.count >= l.maxAttempts {
		l.blocked[ip] = now.Add(l.blockDuration)
	}
}

// Reset clears the counter for an IP (used on successful login).
func (l *RateLimiter) Reset(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, ip)
	delete(l.blocked, ip)
}

func (l *RateLimiter) evictStale(now time.Time) {
	for ip, data := range l.attempts {
		if now.Sub(data.firstAttempt) > l.window {
			delete(l.attempts, ip)
		}
	}
	for ip, until := range l.blocked {
		if !now.Before(until) {
			delete(l.blocked, ip)
		}
	}
}

func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
