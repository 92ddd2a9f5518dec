package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowExhaustsBurst(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiterWithPolicies(map[string]Policy{
		"act": {Burst: 2, Every: time.Minute},
	})
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("u1", "act")
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", "act")
	assert.True(t, ok)

	ok, wait := rl.Allow("u1", "act")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))

	// other users have their own bucket
	ok, _ = rl.Allow("u2", "act")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = rl.Allow("u1", "act")
	assert.True(t, ok)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return now }

	rl.Allow("u1", ActionSendMessage)
	rl.Allow("u1", "unknown")
	assert.Equal(t, 2, rl.size())

	now = now.Add(2 * time.Hour)
	rl.Cleanup()
	assert.Equal(t, 0, rl.size())
}
