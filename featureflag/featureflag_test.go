package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{string(FlagReopenClosedNodes), ""})

	t.Run("is set", func(t *testing.T) {
		require.True(t, f.IsSet(FlagReopenClosedNodes))
		require.False(t, f.IsSet(FlagDisablePathCache))
		require.Len(t, f, 1)
	})

	t.Run("run if enabled", func(t *testing.T) {
		var reopen bool
		f.IfSet(FlagReopenClosedNodes, func() {
			reopen = true
		})
		require.True(t, reopen)

		var noCache bool
		f.IfSet(FlagDisablePathCache, func() {
			noCache = true
		})
		require.False(t, noCache)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var reopen bool
		f.IfNotSet(FlagReopenClosedNodes, func() {
			reopen = true
		})
		require.False(t, reopen)

		var cache bool
		f.IfNotSet(FlagDisablePathCache, func() {
			cache = true
		})
		require.True(t, cache)
	})
}
