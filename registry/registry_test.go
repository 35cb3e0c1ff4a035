package registry

import (
	"math/rand/v2"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRegistryAppend(t *testing.T) {
	reg := New()

	t.Run("ranges are contiguous", func(t *testing.T) {
		a, err := reg.Append(0, make([]Column, 8))
		require.NoError(t, err)
		require.Equal(t, Range{Begin: 0, Count: 8}, a)

		b, err := reg.Append(1, make([]Column, 4))
		require.NoError(t, err)
		require.Equal(t, Range{Begin: 8, Count: 4}, b)
		require.Equal(t, 12, reg.Len())
		require.Equal(t, 12, b.End())
	})

	t.Run("a sphere is registered once", func(t *testing.T) {
		_, err := reg.Append(0, make([]Column, 2))
		require.Error(t, err)
		require.Equal(t, ErrTypeRangeAlreadyRegistered, errors.Type(err))
		require.Equal(t, 12, reg.Len())
	})

	t.Run("range lookup", func(t *testing.T) {
		rng, ok := reg.Range(1)
		require.True(t, ok)
		require.True(t, rng.Contains(8))
		require.False(t, rng.Contains(12))

		_, ok = reg.Range(42)
		require.False(t, ok)
	})
}

func TestRegistrySpans(t *testing.T) {
	reg := New()
	rng, err := reg.Append(0, make([]Column, 8))
	require.NoError(t, err)

	reg.AppendSpan(5, 1, 2)
	reg.AppendSpan(5, 10, 12)

	s, ok := reg.Span(SpanRef{Column: 5, Index: 1})
	require.True(t, ok)
	require.Equal(t, Span{Bottom: 10, Top: 12, Column: 5}, s)

	require.False(t, reg.Valid(SpanRef{Column: 5, Index: 2}))
	require.False(t, reg.Valid(SpanRef{Column: 99, Index: 0}))
	require.Nil(t, reg.Column(-1))
	require.Equal(t, 2, reg.SpanCount(rng))

	t.Run("clear tile only touches the tile", func(t *testing.T) {
		reg.AppendSpan(0, 0, 1)

		// tile size 2: tile 1 owns columns 4..7.
		reg.ClearTile(rng, 1, 2)
		require.Empty(t, reg.Column(5).Spans)
		require.Len(t, reg.Column(0).Spans, 1)
	})
}

func TestRegistryRandomSpan(t *testing.T) {
	reg := New()
	rng, err := reg.Append(0, make([]Column, 16))
	require.NoError(t, err)

	rnd := rand.New(rand.NewPCG(1, 2))

	t.Run("no span", func(t *testing.T) {
		_, ok := reg.RandomSpan(rnd, rng)
		require.False(t, ok)
	})

	t.Run("only non-empty columns are picked", func(t *testing.T) {
		reg.AppendSpan(3, 0, 1)
		reg.AppendSpan(11, 0, 1)
		reg.AppendSpan(11, 5, 6)

		for i := 0; i < 50; i++ {
			ref, ok := reg.RandomSpan(rnd, rng)
			require.True(t, ok)
			require.Contains(t, []int{3, 11}, ref.Column)
			require.True(t, reg.Valid(ref))
		}
	})
}

func TestDirectionString(t *testing.T) {
	require.Equal(t, "-x", NegX.String())
	require.Equal(t, "+z", Z.String())
	require.Equal(t, "unknown", Direction(7).String())
}
