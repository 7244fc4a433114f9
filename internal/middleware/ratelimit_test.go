package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlidingWindowLimiter(t *testing.T) {
	l := NewSlidingWindowLimiter(2, time.Minute)

	require.True(t, l.Allow("1.2.3.4"))
	require.True(t, l.Allow("1.2.3.4"))
	require.False(t, l.Allow("1.2.3.4"))

	// Clients are limited independently.
	require.True(t, l.Allow("5.6.7.8"))
}

func TestSlidingWindowLimiterExpiry(t *testing.T) {
	l := NewSlidingWindowLimiter(1, 10*time.Millisecond)

	require.True(t, l.Allow("1.2.3.4"))
	require.False(t, l.Allow("1.2.3.4"))

	time.Sleep(20 * time.Millisecond)
	require.True(t, l.Allow("1.2.3.4"))
}
