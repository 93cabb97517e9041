package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedPosition(t *testing.T) {
	ctx := context.Background()

	t.Run("should deny without a position", func(t *testing.T) {
		p, err := newFixedPosition("  ")
		require.NoError(t, err)
		granted, err := p.RequestForegroundPermission(ctx)
		require.NoError(t, err)
		require.False(t, granted)
	})

	t.Run("should parse lat,lng", func(t *testing.T) {
		p, err := newFixedPosition("-6.2, 106.816666")
		require.NoError(t, err)
		granted, err := p.RequestForegroundPermission(ctx)
		require.NoError(t, err)
		require.True(t, granted)
		pos, err := p.CurrentPosition(ctx)
		require.NoError(t, err)
		require.Equal(t, -6.2, pos.Latitude)
		require.Equal(t, 106.816666, pos.Longitude)
	})

	t.Run("should reject malformed or out of range input", func(t *testing.T) {
		for _, raw := range []string{"1.0", "a,b", "91,0", "0,181"} {
			_, err := newFixedPosition(raw)
			require.Error(t, err, raw)
		}
	})
}

func TestConfiguredPush(t *testing.T) {
	ctx := context.Background()

	granted, err := configuredPush("").RequestPermission(ctx)
	require.NoError(t, err)
	require.False(t, granted)

	granted, err = configuredPush("ExponentPushToken[abc]").RequestPermission(ctx)
	require.NoError(t, err)
	require.True(t, granted)
	tok, err := configuredPush(" ExponentPushToken[abc] ").DeviceToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "ExponentPushToken[abc]", tok)
}
