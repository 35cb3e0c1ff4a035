package nav

import (
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ErrTypeInvalidSpan = "invalid_span"
)

const (
	// DefaultMaxExpansions bounds the number of nodes a search expands
	// before giving up.
	DefaultMaxExpansions = 20000

	// DefaultStepFactor is the highest walkable step, in strides.
	DefaultStepFactor = 2
)

// Finder finds walkable routes between spans of a sphere.
type Finder interface {
	// FindPath returns the spans to walk from one span to another, both
	// included. An empty path means there is no route. Only malformed span
	// references return an error.
	FindPath(s *sphere.Sphere, from, to registry.SpanRef) (Path, error)
}

// Path is the result of a route search.
type Path struct {
	Spans      []registry.SpanRef `json:"spans"`
	Expansions int                `json:"expansions"`

	// Reports whether the search stopped on the expansion bound.
	Aborted bool `json:"aborted"`
}

func (p Path) Found() bool {
	return len(p.Spans) != 0
}

func (p Path) clone() Path {
	if p.Spans != nil {
		p.Spans = append([]registry.SpanRef(nil), p.Spans...)
	}
	return p
}

// SurfacePoint returns the world position of the top of a span: the column
// center raised along its tile normal.
func SurfacePoint(reg *registry.Registry, s *sphere.Sphere, ref registry.SpanRef) (mgl64.Vec3, bool) {
	span, ok := reg.Span(ref)
	if !ok || !s.Range.Contains(ref.Column) {
		return mgl64.Vec3{}, false
	}

	column := reg.Column(ref.Column)
	tile := s.TileByIndex(column.Tile)
	if tile == nil {
		return mgl64.Vec3{}, false
	}
	return column.Center.Add(tile.Normal().Mul(span.Top)), true
}

func validateRef(reg *registry.Registry, s *sphere.Sphere, name string, ref registry.SpanRef) error {
	if !reg.Valid(ref) || !s.Range.Contains(ref.Column) {
		return errors.New("span reference is not valid on the sphere").
			WithType(ErrTypeInvalidSpan).
			WithTag("sphere", s.Index).
			WithTag(name+"_column", ref.Column).
			WithTag(name+"_span", ref.Index)
	}
	return nil
}
