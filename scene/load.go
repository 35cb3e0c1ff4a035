package scene

import (
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeInvalidScene = "invalid_scene"
	ErrTypeUnknownMesh  = "unknown_mesh"
)

type sceneFile struct {
	Resolution float64         `json:"resolution"`
	Meshes     []meshFile      `json:"meshes"`
	Placements []placementFile `json:"placements"`
}

type meshFile struct {
	Name     string       `json:"name"`
	Vertices [][3]float64 `json:"vertices"`
	Indices  []int        `json:"indices"`
}

type placementFile struct {
	Name     string     `json:"name"`
	Mesh     string     `json:"mesh"`
	Position [3]float64 `json:"position"`

	// Quaternion as [w, x, y, z]. Identity when omitted.
	Rotation *[4]float64 `json:"rotation,omitempty"`

	// Scale per axis. One when omitted.
	Scale *[3]float64 `json:"scale,omitempty"`
}

// LoadFile reads a scene from a JSON file.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New("opening scene file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads a scene from JSON. The document is checked against the scene
// schema first; meshes are then referenced by name from the placements.
func Load(r io.Reader) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("reading scene failed").Wrap(err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.New("decoding scene failed").
			WithType(ErrTypeInvalidScene).
			Wrap(err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, errors.New("scene does not match its schema").
			WithType(ErrTypeInvalidScene).
			Wrap(err)
	}

	var doc sceneFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("decoding scene failed").
			WithType(ErrTypeInvalidScene).
			Wrap(err)
	}

	meshes := make(map[string]*Mesh, len(doc.Meshes))
	for _, m := range doc.Meshes {
		mesh, err := m.toMesh()
		if err != nil {
			return nil, err
		}
		meshes[m.Name] = mesh
	}

	s := NewScene(doc.Resolution)
	for i, p := range doc.Placements {
		mesh, ok := meshes[p.Mesh]
		if !ok {
			return nil, errors.New("placement references an unknown mesh").
				WithType(ErrTypeUnknownMesh).
				WithTag("placement", i).
				WithTag("mesh", p.Mesh)
		}

		rotation := mgl64.QuatIdent()
		if p.Rotation != nil {
			rotation = mgl64.Quat{
				W: p.Rotation[0],
				V: mgl64.Vec3{p.Rotation[1], p.Rotation[2], p.Rotation[3]},
			}
		}

		scale := mgl64.Vec3{1, 1, 1}
		if p.Scale != nil {
			scale = mgl64.Vec3(*p.Scale)
		}

		name := p.Name
		if name == "" {
			name = p.Mesh
		}
		s.Add(NewInstance(name, mesh, mgl64.Vec3(p.Position), rotation, scale))
	}
	return s, nil
}

func (m meshFile) toMesh() (*Mesh, error) {
	if len(m.Indices)%3 != 0 {
		return nil, errors.New("mesh indices are not a triangle list").
			WithType(ErrTypeInvalidScene).
			WithTag("mesh", m.Name).
			WithTag("indices", len(m.Indices))
	}
	for _, i := range m.Indices {
		if i < 0 || i >= len(m.Vertices) {
			return nil, errors.New("mesh index out of range").
				WithType(ErrTypeInvalidScene).
				WithTag("mesh", m.Name).
				WithTag("index", i)
		}
	}

	vertices := make([]mgl64.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		vertices[i] = mgl64.Vec3(v)
	}

	return &Mesh{
		Name:     m.Name,
		Vertices: vertices,
		Indices:  m.Indices,
	}, nil
}
