package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllow(t *testing.T) {
	limiter := NewLimiter(Class{RPS: 1, Burst: 2}, nil)

	assert.True(t, limiter.Allow("workspaces"))
	assert.True(t, limiter.Allow("workspaces"))
	assert.False(t, limiter.Allow("workspaces"), "burst exhausted")
}

func TestLimiterIndependentClasses(t *testing.T) {
	limiter := NewLimiter(Class{RPS: 1, Burst: 1}, map[string]Class{
		"reports": {RPS: 1, Burst: 2},
	})

	assert.True(t, limiter.Allow("workspaces"))
	assert.False(t, limiter.Allow("workspaces"))

	// The reports class has its own bucket with a larger burst.
	assert.True(t, limiter.Allow("reports"))
	assert.True(t, limiter.Allow("reports"))
	assert.False(t, limiter.Allow("reports"))
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	limiter := NewLimiter(Class{RPS: 0.01, Burst: 1}, nil)
	require.NoError(t, limiter.Wait(context.Background(), "workspaces"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limiter.Wait(ctx, "workspaces")
	assert.Error(t, err)
}
