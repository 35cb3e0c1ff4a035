package raster

import "github.com/go-gl/mathgl/mgl64"

const (
	ErrTypeRasterizationFailed = "rasterization_failed"
)

// Grid describes the heightfield to rasterize into. Coordinates are local to
// the caller frame with Y as the height axis.
type Grid struct {
	Width      int
	Height     int
	Min        mgl64.Vec3
	Max        mgl64.Vec3
	CellSize   float64
	CellHeight float64
}

// Soup is a triangle soup: flat xyz vertex coordinates, three indices per
// triangle and one walkable flag per triangle.
type Soup struct {
	Vertices []float64
	Indices  []int
	Walkable []bool
}

func (s Soup) VertexCount() int {
	return len(s.Vertices) / 3
}

func (s Soup) TriangleCount() int {
	return len(s.Indices) / 3
}

// Interval is a solid vertical interval of a cell, in cell height units.
type Interval struct {
	Min int
	Max int
}

// Stacks holds the intervals of every cell of a grid, bottom to top.
type Stacks struct {
	width  int
	height int
	cells  [][]Interval
}

func NewStacks(width, height int) Stacks {
	return Stacks{
		width:  width,
		height: height,
		cells:  make([][]Interval, width*height),
	}
}

func (s Stacks) Width() int {
	return s.width
}

func (s Stacks) Height() int {
	return s.height
}

// At returns the intervals of the cell (x, z).
func (s Stacks) At(x, z int) []Interval {
	if x < 0 || x >= s.width || z < 0 || z >= s.height {
		return nil
	}
	return s.cells[x+z*s.width]
}

// Append pushes an interval on top of the cell (x, z).
func (s Stacks) Append(x, z int, i Interval) {
	idx := x + z*s.width
	s.cells[idx] = append(s.cells[idx], i)
}

// Count returns the total number of intervals.
func (s Stacks) Count() int {
	count := 0
	for _, c := range s.cells {
		count += len(c)
	}
	return count
}

// Rasterizer turns triangle soups into per-cell interval stacks.
type Rasterizer interface {
	Rasterize(g Grid, soups []Soup) (Stacks, error)
}

// RasterizerFunc lets an ordinary function be used as a Rasterizer.
type RasterizerFunc func(g Grid, soups []Soup) (Stacks, error)

func (f RasterizerFunc) Rasterize(g Grid, soups []Soup) (Stacks, error) {
	return f(g, soups)
}
