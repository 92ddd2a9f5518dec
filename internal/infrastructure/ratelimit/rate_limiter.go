package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage   = "send_message"
	ActionCreateChat    = "create_chat"
	ActionRegisterToken = "register_token"
	ActionExchange      = "exchange_request"
)

// Policy is a token bucket: Burst tokens, one more every Every.
type Policy struct {
	Burst int
	Every time.Duration
}

var defaultPolicies = map[string]Policy{
	ActionSendMessage:   {Burst: 10, Every: 6 * time.Second},
	ActionCreateChat:    {Burst: 30, Every: 10 * time.Second},
	ActionRegisterToken: {Burst: 10, Every: 6 * time.Second},
	ActionExchange:      {Burst: 5, Every: time.Minute},
}

var fallbackPolicy = Policy{Burst: 20, Every: 3 * time.Second}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one bucket per user and action.
type RateLimiter struct {
	buckets  map[string]*bucket
	policies map[string]Policy
	now      func() time.Time
	mutex    sync.Mutex
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithPolicies(defaultPolicies)
}

func NewRateLimiterWithPolicies(policies map[string]Policy) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		policies: policies,
		now:      time.Now,
	}
}

func (rl *RateLimiter) policyFor(action string) Policy {
	if p, ok := rl.policies[action]; ok {
		return p
	}
	return fallbackPolicy
}

// Allow consumes one token for the user's action. When the bucket is empty
// it returns false and how long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := rl.now()

	rl.mutex.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		p := rl.policyFor(action)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(p.Every), p.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mutex.Unlock()

	reservation := b.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, rl.policyFor(action).Every
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup drops buckets not touched for an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (rl *RateLimiter) size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.buckets)
}
