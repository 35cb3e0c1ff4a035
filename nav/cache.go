package nav

import (
	"strconv"
	"sync"

	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of paths kept by a cache when none is given.
const DefaultCacheSize = 1024

// Cache is a Finder that remembers the most recent paths. Concurrent
// identical queries share a single search.
//
// Cached paths are only valid while spans stay the same: Purge must be
// called whenever a tile is voxelized again.
type Cache struct {
	Finder

	mutex sync.Mutex
	paths *lru.Cache
	group singleflight.Group
}

// FinderWithCache wraps a finder with a path cache holding up to size
// paths.
func FinderWithCache(f Finder, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}

	return &Cache{
		Finder: f,
		paths:  lru.New(size),
	}
}

type cacheKey struct {
	sphere string
	from   registry.SpanRef
	to     registry.SpanRef
}

func (k cacheKey) String() string {
	return k.sphere + ":" +
		strconv.Itoa(k.from.Column) + "." + strconv.Itoa(k.from.Index) + ">" +
		strconv.Itoa(k.to.Column) + "." + strconv.Itoa(k.to.Index)
}

func (c *Cache) FindPath(s *sphere.Sphere, from, to registry.SpanRef) (Path, error) {
	key := cacheKey{
		sphere: s.ID,
		from:   from,
		to:     to,
	}

	if path, ok := c.get(key); ok {
		instrumentCacheLookup(true)
		return path, nil
	}
	instrumentCacheLookup(false)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		path, err := c.Finder.FindPath(s, from, to)
		if err != nil {
			return Path{}, err
		}

		c.mutex.Lock()
		c.paths.Add(key, path)
		c.mutex.Unlock()
		return path, nil
	})
	if err != nil {
		return Path{}, err
	}
	return v.(Path).clone(), nil
}

func (c *Cache) get(key cacheKey) (Path, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	v, ok := c.paths.Get(key)
	if !ok {
		return Path{}, false
	}
	return v.(Path).clone(), true
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.paths.Len()
}

// Purge drops every cached path.
func (c *Cache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.paths.Clear()
}
