package raster

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// DefaultMergeThreshold is the height, in cells, under which the tops of
// merged spans keep the walkable flag of either span.
const DefaultMergeThreshold = 10000

const (
	nullArea     = 0
	walkableArea = 63

	// Spans are stored on 13 bits in recast heightfields.
	spanMaxHeight = 1<<13 - 1
)

// Recast rasterizes triangles the way the recast heightfield rasterizer
// does: each triangle is clipped against the grid rows then columns, and the
// vertical extent of every clipped piece becomes a solid span. Touching or
// overlapping spans of a cell are merged.
type Recast struct {
	MergeThreshold int
}

func (r Recast) Rasterize(g Grid, soups []Soup) (Stacks, error) {
	stacks := NewStacks(g.Width, g.Height)

	if g.Width <= 0 || g.Height <= 0 || g.CellSize <= 0 || g.CellHeight <= 0 {
		return stacks, errors.New("creating heightfield failed").
			WithType(ErrTypeRasterizationFailed).
			WithTag("width", g.Width).
			WithTag("height", g.Height).
			WithTag("cell_size", g.CellSize).
			WithTag("cell_height", g.CellHeight)
	}

	mergeThreshold := r.MergeThreshold
	if mergeThreshold <= 0 {
		mergeThreshold = DefaultMergeThreshold
	}

	hf := newHeightfield(g)
	for i, s := range soups {
		count := s.TriangleCount()
		vertices := s.VertexCount()

		for t := 0; t < count; t++ {
			a, b, c := s.Indices[t*3], s.Indices[t*3+1], s.Indices[t*3+2]
			if a < 0 || b < 0 || c < 0 || a >= vertices || b >= vertices || c >= vertices {
				return stacks, errors.New("rasterizing triangles failed").
					WithType(ErrTypeRasterizationFailed).
					WithTag("soup", i).
					WithTag("triangle", t).
					WithTag("vertices", vertices)
			}

			area := nullArea
			if t < len(s.Walkable) && s.Walkable[t] {
				area = walkableArea
			}
			hf.rasterizeTriangle(s.vertex(a), s.vertex(b), s.vertex(c), area, mergeThreshold)
		}
	}

	for z := 0; z < hf.height; z++ {
		for x := 0; x < hf.width; x++ {
			for _, sp := range hf.spans[x+z*hf.width] {
				stacks.Append(x, z, Interval{
					Min: sp.min,
					Max: sp.max,
				})
			}
		}
	}
	return stacks, nil
}

type span struct {
	min  int
	max  int
	area int
}

// heightfield holds the spans of each cell, bottom to top.
type heightfield struct {
	width  int
	height int
	min    [3]float64
	max    [3]float64
	cs     float64
	ch     float64
	spans  [][]span
}

func newHeightfield(g Grid) *heightfield {
	return &heightfield{
		width:  g.Width,
		height: g.Height,
		min:    g.Min,
		max:    g.Max,
		cs:     g.CellSize,
		ch:     g.CellHeight,
		spans:  make([][]span, g.Width*g.Height),
	}
}

func (hf *heightfield) addSpan(x, z int, s span, mergeThreshold int) {
	idx := x + z*hf.width
	cell := hf.spans[idx]
	merged := make([]span, 0, len(cell)+1)
	inserted := false

	for _, cur := range cell {
		switch {
		case cur.max < s.min:
			merged = append(merged, cur)

		case cur.min > s.max:
			if !inserted {
				merged = append(merged, s)
				inserted = true
			}
			merged = append(merged, cur)

		default:
			s.min = min(s.min, cur.min)
			s.max = max(s.max, cur.max)
			if abs(s.max-cur.max) <= mergeThreshold {
				s.area = max(s.area, cur.area)
			}
		}
	}
	if !inserted {
		merged = append(merged, s)
	}
	hf.spans[idx] = merged
}

func (hf *heightfield) rasterizeTriangle(a, b, c [3]float64, area, mergeThreshold int) {
	tmin, tmax := a, a
	for _, v := range [2][3]float64{b, c} {
		for i := range v {
			tmin[i] = math.Min(tmin[i], v[i])
			tmax[i] = math.Max(tmax[i], v[i])
		}
	}
	if !overlapBounds(tmin, tmax, hf.min, hf.max) {
		return
	}

	ics := 1 / hf.cs
	ich := 1 / hf.ch
	by := hf.max[1] - hf.min[1]

	z0 := clampInt(int(math.Floor((tmin[2]-hf.min[2])*ics)), -1, hf.height-1)
	z1 := clampInt(int(math.Floor((tmax[2]-hf.min[2])*ics)), 0, hf.height-1)

	in := [][3]float64{a, b, c}
	for z := z0; z <= z1; z++ {
		cz := hf.min[2] + float64(z)*hf.cs
		row, rest := dividePoly(in, cz+hf.cs, 2)
		in = rest
		if z < 0 || len(row) < 3 {
			continue
		}

		minX, maxX := row[0][0], row[0][0]
		for _, v := range row[1:] {
			minX = math.Min(minX, v[0])
			maxX = math.Max(maxX, v[0])
		}
		x0 := int(math.Floor((minX - hf.min[0]) * ics))
		x1 := int(math.Floor((maxX - hf.min[0]) * ics))
		if x1 < 0 || x0 >= hf.width {
			continue
		}
		x0 = clampInt(x0, -1, hf.width-1)
		x1 = clampInt(x1, 0, hf.width-1)

		for x := x0; x <= x1; x++ {
			cx := hf.min[0] + float64(x)*hf.cs
			cell, rowRest := dividePoly(row, cx+hf.cs, 0)
			row = rowRest
			if x < 0 || len(cell) < 3 {
				continue
			}

			smin, smax := cell[0][1], cell[0][1]
			for _, v := range cell[1:] {
				smin = math.Min(smin, v[1])
				smax = math.Max(smax, v[1])
			}
			smin -= hf.min[1]
			smax -= hf.min[1]
			if smax < 0 || smin > by {
				continue
			}
			smin = math.Max(smin, 0)
			smax = math.Min(smax, by)

			ismin := clampInt(int(math.Floor(smin*ich)), 0, spanMaxHeight)
			ismax := clampInt(int(math.Ceil(smax*ich)), ismin+1, spanMaxHeight)
			hf.addSpan(x, z, span{min: ismin, max: ismax, area: area}, mergeThreshold)
		}
	}
}

// dividePoly splits a convex polygon by the plane where the given axis
// equals at. The first polygon holds the part below the plane.
func dividePoly(in [][3]float64, at float64, axis int) ([][3]float64, [][3]float64) {
	var below, above [][3]float64

	n := len(in)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		dj := at - in[j][axis]
		di := at - in[i][axis]

		if (dj >= 0) != (di >= 0) {
			s := dj / (dj - di)
			var p [3]float64
			for k := range p {
				p[k] = in[j][k] + (in[i][k]-in[j][k])*s
			}
			below = append(below, p)
			above = append(above, p)

			if di > 0 {
				below = append(below, in[i])
			} else if di < 0 {
				above = append(above, in[i])
			}
			continue
		}

		if di >= 0 {
			below = append(below, in[i])
			if di != 0 {
				continue
			}
		}
		above = append(above, in[i])
	}
	return below, above
}

func overlapBounds(amin, amax, bmin, bmax [3]float64) bool {
	for i := range amin {
		if amin[i] > bmax[i] || amax[i] < bmin[i] {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
