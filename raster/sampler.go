package raster

import (
	"math"
	"sort"
)

// Sampler is a point-sampling rasterizer: each cell gets one flat interval
// per distinct height at which a triangle crosses the vertical line through
// the cell center. It ignores triangle thickness and is meant for thin
// walkable surfaces.
type Sampler struct{}

func (Sampler) Rasterize(g Grid, soups []Soup) (Stacks, error) {
	stacks := NewStacks(g.Width, g.Height)

	for z := 0; z < g.Height; z++ {
		pz := g.Min[2] + (float64(z)+0.5)*g.CellSize

		for x := 0; x < g.Width; x++ {
			px := g.Min[0] + (float64(x)+0.5)*g.CellSize

			var cells []int
			for _, s := range soups {
				for t := 0; t < s.TriangleCount(); t++ {
					h, ok := s.heightAt(t, px, pz)
					if !ok || h < g.Min[1] || h > g.Max[1] {
						continue
					}
					cells = append(cells, int(math.Floor((h-g.Min[1])/g.CellHeight)))
				}
			}

			sort.Ints(cells)
			for i, c := range cells {
				if i > 0 && cells[i-1] == c {
					continue
				}
				stacks.Append(x, z, Interval{Min: c, Max: c})
			}
		}
	}
	return stacks, nil
}

// heightAt returns the height of triangle t above the point (x, z), when the
// point falls inside the triangle projection.
func (s Soup) heightAt(t int, x, z float64) (float64, bool) {
	const epsilon = 1e-9

	a := s.vertex(s.Indices[t*3])
	b := s.vertex(s.Indices[t*3+1])
	c := s.vertex(s.Indices[t*3+2])

	det := (b[2]-c[2])*(a[0]-c[0]) + (c[0]-b[0])*(a[2]-c[2])
	if math.Abs(det) < epsilon {
		return 0, false
	}

	l1 := ((b[2]-c[2])*(x-c[0]) + (c[0]-b[0])*(z-c[2])) / det
	l2 := ((c[2]-a[2])*(x-c[0]) + (a[0]-c[0])*(z-c[2])) / det
	l3 := 1 - l1 - l2
	if l1 < -epsilon || l2 < -epsilon || l3 < -epsilon {
		return 0, false
	}
	return l1*a[1] + l2*b[1] + l3*c[1], true
}

func (s Soup) vertex(i int) [3]float64 {
	return [3]float64{s.Vertices[i*3], s.Vertices[i*3+1], s.Vertices[i*3+2]}
}
