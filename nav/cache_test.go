package nav

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

type countingFinder struct {
	Finder
	calls atomic.Int64
}

func (f *countingFinder) FindPath(s *sphere.Sphere, from, to registry.SpanRef) (Path, error) {
	f.calls.Add(1)
	return f.Finder.FindPath(s, from, to)
}

func TestCache(t *testing.T) {
	reg, s := newFlatSphere(t)
	from, _, to := interiorRow(s)

	counter := &countingFinder{Finder: &AStar{Registry: reg}}
	c := FinderWithCache(counter, 8)

	first, err := c.FindPath(s, ref(from), ref(to))
	require.NoError(t, err)
	require.True(t, first.Found())
	require.Equal(t, int64(1), counter.calls.Load())
	require.Equal(t, 1, c.Len())

	t.Run("hit", func(t *testing.T) {
		second, err := c.FindPath(s, ref(from), ref(to))
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, int64(1), counter.calls.Load())
	})

	t.Run("returned paths are copies", func(t *testing.T) {
		p, err := c.FindPath(s, ref(from), ref(to))
		require.NoError(t, err)
		p.Spans[0] = ref(-1)

		p, err = c.FindPath(s, ref(from), ref(to))
		require.NoError(t, err)
		require.Equal(t, first.Spans, p.Spans)
	})

	t.Run("reverse query is another entry", func(t *testing.T) {
		calls := counter.calls.Load()
		p, err := c.FindPath(s, ref(to), ref(from))
		require.NoError(t, err)
		require.True(t, p.Found())
		require.Equal(t, calls+1, counter.calls.Load())
		require.Equal(t, 2, c.Len())
	})

	t.Run("purge", func(t *testing.T) {
		calls := counter.calls.Load()
		c.Purge()
		require.Zero(t, c.Len())

		_, err := c.FindPath(s, ref(from), ref(to))
		require.NoError(t, err)
		require.Equal(t, calls+1, counter.calls.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		calls := counter.calls.Load()
		size := c.Len()

		for i := 0; i < 2; i++ {
			_, err := c.FindPath(s, ref(-1), ref(to))
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidSpan, errors.Type(err))
		}
		require.Equal(t, calls+2, counter.calls.Load())
		require.Equal(t, size, c.Len())
	})
}

func TestCacheEviction(t *testing.T) {
	reg, s := newFlatSphere(t)
	from, mid, to := interiorRow(s)

	c := FinderWithCache(&AStar{Registry: reg}, 2)
	for _, target := range []int{from, mid, to} {
		_, err := c.FindPath(s, ref(from), ref(target))
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Len())
}

func TestCacheDefaultSize(t *testing.T) {
	c := FinderWithCache(&AStar{}, 0)
	require.Equal(t, DefaultCacheSize, c.paths.MaxEntries)
}

func TestCacheConcurrentQueries(t *testing.T) {
	reg, s := newFlatSphere(t)
	from, _, to := interiorRow(s)
	c := FinderWithCache(&AStar{Registry: reg}, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			p, err := c.FindPath(s, ref(from), ref(to))
			require.NoError(t, err)
			require.Len(t, p.Spans, 3)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, c.Len())
}

func TestFinderDecorators(t *testing.T) {
	reg, s := newFlatSphere(t)
	from, _, to := interiorRow(s)
	a := &AStar{Registry: reg}

	want, err := a.FindPath(s, ref(from), ref(to))
	require.NoError(t, err)

	finders := map[string]Finder{
		"logs":    FinderWithLogs(a),
		"metrics": FinderWithMetrics(a),
		"stacked": FinderWithCache(FinderWithMetrics(FinderWithLogs(a)), 0),
	}

	for name, f := range finders {
		t.Run(name, func(t *testing.T) {
			p, err := f.FindPath(s, ref(from), ref(to))
			require.NoError(t, err)
			require.Equal(t, want, p)

			_, err = f.FindPath(s, ref(from), registry.SpanRef{Column: to, Index: 2})
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidSpan, errors.Type(err))
		})
	}

	t.Run("aborted and unreachable pass through", func(t *testing.T) {
		bounded := FinderWithMetrics(FinderWithLogs(&AStar{Registry: reg, MaxExpansions: 1}))
		p, err := bounded.FindPath(s, ref(from), ref(to))
		require.NoError(t, err)
		require.True(t, p.Aborted)

		reg.Column(to).Spans[0].Top = 1000
		p, err = FinderWithLogs(a).FindPath(s, ref(from), ref(to))
		require.NoError(t, err)
		require.False(t, p.Found())
		require.False(t, p.Aborted)
	})
}
