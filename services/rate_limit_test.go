package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRateLimit() *RateLimitService {
	svc := &RateLimitService{
		local: make(map[string]*localWindow),
	}
	svc.initDefaultConfigs()
	return svc
}

func TestIsAllowedEnforcesWindowLimit(t *testing.T) {
	svc := newTestRateLimit()

	for i := 0; i < 5; i++ {
		allowed, info, err := svc.IsAllowed("1.2.3.4", "register")
		require.NoError(t, err)
		require.True(t, allowed, "request %d should pass", i+1)
		require.Equal(t, 5-(i+1), info.Remaining)
	}

	allowed, info, err := svc.IsAllowed("1.2.3.4", "register")
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, info.Remaining)
	require.NotNil(t, info.ResetAt)
}

func TestIsAllowedKeysPerIdentifier(t *testing.T) {
	svc := newTestRateLimit()

	for i := 0; i < 5; i++ {
		allowed, _, err := svc.IsAllowed("1.2.3.4", "register")
		require.NoError(t, err)
		require.True(t, allowed)
	}

	// A different caller still has a full window.
	allowed, _, err := svc.IsAllowed("5.6.7.8", "register")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestIsAllowedResetsAfterWindow(t *testing.T) {
	svc := newTestRateLimit()

	for i := 0; i < 6; i++ {
		svc.IsAllowed("1.2.3.4", "register")
	}

	allowed, _, err := svc.IsAllowed("1.2.3.4", "register")
	require.NoError(t, err)
	require.False(t, allowed)

	// Force the window to expire.
	svc.mutex.Lock()
	svc.local["register:1.2.3.4"].resetAt = time.Now().Add(-time.Second)
	svc.mutex.Unlock()

	allowed, info, err := svc.IsAllowed("1.2.3.4", "register")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 4, info.Remaining)
}

func TestIsAllowedPassesUnknownEndpointTypes(t *testing.T) {
	svc := newTestRateLimit()

	allowed, info, err := svc.IsAllowed("1.2.3.4", "nonexistent")
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, -1, info.Remaining)
}
