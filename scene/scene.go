package scene

import (
	"sync"

	"github.com/GeraltShaowen233/VoxelDemo/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle mesh in model space.
type Mesh struct {
	Name     string
	Vertices []mgl64.Vec3
	Indices  []int
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Instance is a mesh placed in the world.
type Instance struct {
	Name      string
	Mesh      *Mesh
	Transform mgl64.Mat4

	// World space bounds, computed once at placement.
	Bounds geom.AABB
}

// NewInstance places a mesh with a translate * rotate * scale transform.
func NewInstance(name string, mesh *Mesh, position mgl64.Vec3, rotation mgl64.Quat, scale mgl64.Vec3) *Instance {
	i := &Instance{
		Name:      name,
		Mesh:      mesh,
		Transform: geom.Transform(position, rotation, scale),
	}
	i.Bounds = geom.NewAABB(i.WorldVertices()...)
	return i
}

// WorldVertices returns the mesh vertices in world space.
func (i *Instance) WorldVertices() []mgl64.Vec3 {
	vertices := make([]mgl64.Vec3, len(i.Mesh.Vertices))
	for j, v := range i.Mesh.Vertices {
		vertices[j] = geom.TransformPoint(i.Transform, v)
	}
	return vertices
}

// Source provides the placed geometry overlapping a region.
type Source interface {
	Query(b geom.AABB) []*Instance
}

// Scene is an in-memory Source. It is safe for concurrent use.
type Scene struct {
	mutex     sync.RWMutex
	instances []*Instance
	index     *bucketIndex
}

// NewScene creates an empty scene whose index buckets are resolution wide.
func NewScene(resolution float64) *Scene {
	return &Scene{
		index: newBucketIndex(resolution),
	}
}

func (s *Scene) Add(instances ...*Instance) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, i := range instances {
		s.index.insert(len(s.instances), i.Bounds)
		s.instances = append(s.instances, i)
	}
}

// Query returns the instances whose bounds intersect b, in insertion order.
func (s *Scene) Query(b geom.AABB) []*Instance {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if b.IsEmpty() {
		return nil
	}

	var ids []int
	if s.index.cellCount(b) > len(s.instances) {
		ids = make([]int, len(s.instances))
		for i := range ids {
			ids[i] = i
		}
	} else {
		ids = s.index.query(b)
	}

	var res []*Instance
	for _, id := range ids {
		if i := s.instances[id]; i.Bounds.Intersects(b) {
			res = append(res, i)
		}
	}
	return res
}

func (s *Scene) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.instances)
}

// Bounds returns the box holding every instance of the scene.
func (s *Scene) Bounds() geom.AABB {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	b := geom.EmptyAABB()
	for _, i := range s.instances {
		b = b.Extend(i.Bounds.Min).Extend(i.Bounds.Max)
	}
	return b
}
