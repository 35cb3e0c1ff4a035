package registry

import (
	"math/rand/v2"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ErrTypeRangeAlreadyRegistered = "range_already_registered"
	ErrTypeUnknownRange           = "unknown_range"
)

// Direction identifies one of the four cardinal neighbors of a column in its
// tile's local (u, v) frame.
type Direction int

const (
	NegX Direction = iota
	X
	NegZ
	Z
)

// Directions lists the neighbor slots in storage order.
var Directions = [4]Direction{NegX, X, NegZ, Z}

func (d Direction) String() string {
	switch d {
	case NegX:
		return "-x"
	case X:
		return "+x"
	case NegZ:
		return "-z"
	case Z:
		return "+z"
	default:
		return "unknown"
	}
}

// Span is one vertical free-space interval of a column.
type Span struct {
	Bottom float64
	Top    float64

	// Global index of the owning column.
	Column int
}

// SpanRef addresses a span by its column global index and its position in
// the column's span list.
type SpanRef struct {
	Column int `json:"column"`
	Index  int `json:"span"`
}

// Column is one cell of a tile's local grid.
type Column struct {
	Center    mgl64.Vec3
	Sphere    int
	Tile      int
	Neighbors [4]int
	Spans     []Span
}

// Range is the contiguous slice of the column store owned by one sphere.
type Range struct {
	Begin int
	Count int
}

func (r Range) End() int {
	return r.Begin + r.Count
}

func (r Range) Contains(i int) bool {
	return i >= r.Begin && i < r.End()
}

// Registry is the flat append-only column store shared by all the spheres of
// a world. It is not safe for concurrent mutation.
type Registry struct {
	columns []Column
	ranges  map[int]Range
}

func New() *Registry {
	return &Registry{
		ranges: make(map[int]Range),
	}
}

// Len returns the total number of registered columns.
func (r *Registry) Len() int {
	return len(r.columns)
}

// Next returns the global index the next appended column will get.
func (r *Registry) Next() int {
	return len(r.columns)
}

// Append registers the columns of a sphere as one contiguous range. A sphere
// can only be registered once.
func (r *Registry) Append(sphere int, columns []Column) (Range, error) {
	if _, ok := r.ranges[sphere]; ok {
		return Range{}, errors.New("sphere range already registered").
			WithType(ErrTypeRangeAlreadyRegistered).
			WithTag("sphere", sphere)
	}

	rng := Range{
		Begin: len(r.columns),
		Count: len(columns),
	}
	r.columns = append(r.columns, columns...)
	r.ranges[sphere] = rng
	return rng, nil
}

// Range returns the range registered for a sphere.
func (r *Registry) Range(sphere int) (Range, bool) {
	rng, ok := r.ranges[sphere]
	return rng, ok
}

// Column returns the column at the given global index or nil when the index
// is out of bounds.
func (r *Registry) Column(i int) *Column {
	if i < 0 || i >= len(r.columns) {
		return nil
	}
	return &r.columns[i]
}

// Span resolves a span reference.
func (r *Registry) Span(ref SpanRef) (Span, bool) {
	c := r.Column(ref.Column)
	if c == nil || ref.Index < 0 || ref.Index >= len(c.Spans) {
		return Span{}, false
	}
	return c.Spans[ref.Index], true
}

func (r *Registry) Valid(ref SpanRef) bool {
	_, ok := r.Span(ref)
	return ok
}

// AppendSpan adds a span on top of the span list of a column.
func (r *Registry) AppendSpan(column int, bottom, top float64) {
	c := &r.columns[column]
	c.Spans = append(c.Spans, Span{
		Bottom: bottom,
		Top:    top,
		Column: column,
	})
}

// TileColumns returns the global index range [begin, end) of a tile's
// columns within a sphere range.
func TileColumns(rng Range, tile, tileSize int) (int, int) {
	begin := rng.Begin + tile*tileSize*tileSize
	return begin, begin + tileSize*tileSize
}

// ClearTile drops every span of the columns of the given tile.
func (r *Registry) ClearTile(rng Range, tile, tileSize int) {
	begin, end := TileColumns(rng, tile, tileSize)
	for i := begin; i < end && i < len(r.columns); i++ {
		r.columns[i].Spans = nil
	}
}

// SpanCount returns the number of spans stored in a range.
func (r *Registry) SpanCount(rng Range) int {
	count := 0
	for i := rng.Begin; i < rng.End(); i++ {
		count += len(r.columns[i].Spans)
	}
	return count
}

// RandomSpan picks a span uniformly among the non-empty columns of a range,
// then uniformly within the column. It returns false when the range holds no
// span at all.
func (r *Registry) RandomSpan(rnd *rand.Rand, rng Range) (SpanRef, bool) {
	candidates := make([]int, 0, 64)
	for i := rng.Begin; i < rng.End(); i++ {
		if len(r.columns[i].Spans) != 0 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return SpanRef{}, false
	}

	column := candidates[rnd.IntN(len(candidates))]
	return SpanRef{
		Column: column,
		Index:  rnd.IntN(len(r.columns[column].Spans)),
	}, true
}
