package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCheckRateLimit(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, 1, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, 1, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Another user has their own window.
	allowed, err = repo.CheckRateLimit(ctx, 2, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryCheckRateLimitWindowReset(t *testing.T) {
	repo := NewMemoryStateRepository()
	ctx := context.Background()

	allowed, err := repo.CheckRateLimit(ctx, 1, 1, time.Nanosecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	time.Sleep(5 * time.Millisecond)

	allowed, err = repo.CheckRateLimit(ctx, 1, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "expired window must reset the counter")
}
