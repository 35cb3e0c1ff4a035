package nav

import (
	"container/heap"
	"math"

	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/go-gl/mathgl/mgl64"
)

// AStar is a best-first search over spans. Two spans of neighbor columns are
// linked when their tops are at most StepFactor strides apart, and every hop
// costs one stride. The heuristic is the straight distance between span
// surface points.
//
// Once a span is expanded it is final unless Reopen is set, in which case a
// strictly cheaper route found later puts it back in the open set.
type AStar struct {
	Registry      *registry.Registry
	MaxExpansions int
	StepFactor    float64
	Reopen        bool
}

func (a *AStar) FindPath(s *sphere.Sphere, from, to registry.SpanRef) (Path, error) {
	if err := validateRef(a.Registry, s, "from", from); err != nil {
		return Path{}, err
	}
	if err := validateRef(a.Registry, s, "to", to); err != nil {
		return Path{}, err
	}

	maxExpansions := a.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}
	stepFactor := a.StepFactor
	if stepFactor <= 0 {
		stepFactor = DefaultStepFactor
	}

	search := search{
		registry: a.Registry,
		sphere:   s,
		maxStep:  stepFactor * s.Stride,
		reopen:   a.Reopen,
		best:     make(map[registry.SpanRef]float64),
		closed:   make(map[registry.SpanRef]struct{}),
	}
	search.goal, _ = SurfacePoint(a.Registry, s, to)

	return search.run(from, to, maxExpansions), nil
}

type node struct {
	ref    registry.SpanRef
	g      float64
	parent int
}

type search struct {
	registry *registry.Registry
	sphere   *sphere.Sphere
	maxStep  float64
	reopen   bool
	goal     mgl64.Vec3

	nodes  []node
	open   openSet
	seq    int
	best   map[registry.SpanRef]float64
	closed map[registry.SpanRef]struct{}
}

func (s *search) run(from, to registry.SpanRef, maxExpansions int) Path {
	s.push(from, 0, -1)

	expansions := 0
	for s.open.Len() != 0 {
		current := heap.Pop(&s.open).(openItem).node
		n := s.nodes[current]

		if _, ok := s.closed[n.ref]; ok {
			continue
		}
		s.closed[n.ref] = struct{}{}

		expansions++
		if expansions > maxExpansions {
			return Path{
				Expansions: expansions,
				Aborted:    true,
			}
		}

		if n.ref == to {
			return Path{
				Spans:      s.walkBack(current),
				Expansions: expansions,
			}
		}

		s.expand(current)
	}

	return Path{Expansions: expansions}
}

func (s *search) expand(current int) {
	n := s.nodes[current]
	span, _ := s.registry.Span(n.ref)
	column := s.registry.Column(n.ref.Column)
	g := n.g + s.sphere.Stride

	for _, neighbor := range column.Neighbors {
		for i, candidate := range s.registry.Column(neighbor).Spans {
			if math.Abs(candidate.Top-span.Top) > s.maxStep {
				continue
			}

			ref := registry.SpanRef{Column: neighbor, Index: i}
			if best, ok := s.best[ref]; ok && g >= best {
				continue
			}

			if _, ok := s.closed[ref]; ok {
				if !s.reopen {
					continue
				}
				delete(s.closed, ref)
			}
			s.push(ref, g, current)
		}
	}
}

func (s *search) push(ref registry.SpanRef, g float64, parent int) {
	var h float64
	if p, ok := SurfacePoint(s.registry, s.sphere, ref); ok {
		h = p.Sub(s.goal).Len()
	}

	s.nodes = append(s.nodes, node{
		ref:    ref,
		g:      g,
		parent: parent,
	})
	s.best[ref] = g

	heap.Push(&s.open, openItem{
		f:    g + h,
		seq:  s.seq,
		node: len(s.nodes) - 1,
	})
	s.seq++
}

func (s *search) walkBack(i int) []registry.SpanRef {
	var spans []registry.SpanRef
	for ; i >= 0; i = s.nodes[i].parent {
		spans = append(spans, s.nodes[i].ref)
	}

	for l, r := 0, len(spans)-1; l < r; l, r = l+1, r-1 {
		spans[l], spans[r] = spans[r], spans[l]
	}
	return spans
}

type openItem struct {
	f    float64
	seq  int
	node int
}

// Min-heap on f. Ties go to the earliest pushed item.
type openSet []openItem

func (o openSet) Len() int {
	return len(o)
}

func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}

func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
}

func (o *openSet) Push(x any) {
	*o = append(*o, x.(openItem))
}

func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	*o = old[:n-1]
	return item
}
