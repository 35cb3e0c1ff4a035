package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/GeraltShaowen233/VoxelDemo/nav"
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/GeraltShaowen233/VoxelDemo/voxel"
	"github.com/GeraltShaowen233/VoxelDemo/world"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/encoding/json"
)

// API serves the read and maintenance queries of a world.
type API struct {
	World *world.World
}

// Register adds the API routes to a mux.
func (a API) Register(mux *http.ServeMux) {
	mux.Handle("/spheres", HandleWithCORS(http.HandlerFunc(a.HandleSpheres)))
	mux.Handle("/locate", HandleWithCORS(http.HandlerFunc(a.HandleLocate)))
	mux.Handle("/random-span", HandleWithCORS(http.HandlerFunc(a.HandleRandomSpan)))
	mux.Handle("/path", HandleWithCORS(http.HandlerFunc(a.HandlePath)))
	mux.Handle("/revoxelize", HandleWithCORS(http.HandlerFunc(a.HandleRevoxelize)))
}

type SphereInfo struct {
	Index    int        `json:"index"`
	ID       string     `json:"id"`
	Center   mgl64.Vec3 `json:"center"`
	Radius   float64    `json:"radius"`
	Stride   float64    `json:"stride"`
	TileSize int        `json:"tile_size"`
	Bands    int        `json:"bands"`
	Tiles    int        `json:"tiles"`
	Columns  int        `json:"columns"`
	Spans    int        `json:"spans"`
}

func (a API) HandleSpheres(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r)
		return
	}

	spheres := a.World.Spheres()
	res := make([]SphereInfo, 0, len(spheres))
	for _, s := range spheres {
		spans, _ := a.World.SpanCount(s.Index)
		res = append(res, SphereInfo{
			Index:    s.Index,
			ID:       s.ID,
			Center:   s.Center,
			Radius:   s.Radius,
			Stride:   s.Stride,
			TileSize: s.TileSize,
			Bands:    len(s.Bands),
			Tiles:    s.TileCount(),
			Columns:  s.ColumnCount(),
			Spans:    spans,
		})
	}
	JSON(w, http.StatusOK, res)
}

type LocateResponse struct {
	Sphere int `json:"sphere"`
	sphere.Location
}

func (a API) HandleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r)
		return
	}

	index, err := queryInt(r, "sphere")
	if err != nil {
		BadRequest(w, err)
		return
	}

	var p mgl64.Vec3
	for i, name := range []string{"x", "y", "z"} {
		if p[i], err = queryFloat(r, name); err != nil {
			BadRequest(w, err)
			return
		}
	}

	loc, err := a.World.Locate(index, p)
	if err != nil {
		worldError(w, err)
		return
	}
	JSON(w, http.StatusOK, LocateResponse{
		Sphere:   index,
		Location: loc,
	})
}

type SpanResponse struct {
	Sphere int              `json:"sphere"`
	Span   registry.SpanRef `json:"span"`
	Bottom float64          `json:"bottom"`
	Top    float64          `json:"top"`
	Point  mgl64.Vec3       `json:"point"`
}

func (a API) HandleRandomSpan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r)
		return
	}

	index, err := queryInt(r, "sphere")
	if err != nil {
		BadRequest(w, err)
		return
	}

	ref, ok, err := a.World.RandomSpan(index)
	if err != nil {
		worldError(w, err)
		return
	}
	if !ok {
		NotFound(w, errors.New("sphere has no span").
			WithType(nav.ErrTypeInvalidSpan).
			WithTag("sphere", index))
		return
	}

	span, _ := a.World.Span(ref)
	point, _ := a.World.SurfacePoint(index, ref)
	JSON(w, http.StatusOK, SpanResponse{
		Sphere: index,
		Span:   ref,
		Bottom: span.Bottom,
		Top:    span.Top,
		Point:  point,
	})
}

type PathRequest struct {
	Sphere int              `json:"sphere"`
	From   registry.SpanRef `json:"from"`
	To     registry.SpanRef `json:"to"`
}

type PathResponse struct {
	nav.Path
	Found  bool         `json:"found"`
	Points []mgl64.Vec3 `json:"points"`
}

func (a API) HandlePath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r)
		return
	}

	var req PathRequest
	if err := decodeBody(r, &req); err != nil {
		BadRequest(w, err)
		return
	}

	path, err := a.World.FindPath(req.Sphere, req.From, req.To)
	if err != nil {
		worldError(w, err)
		return
	}

	points := make([]mgl64.Vec3, 0, len(path.Spans))
	for _, ref := range path.Spans {
		p, _ := a.World.SurfacePoint(req.Sphere, ref)
		points = append(points, p)
	}

	JSON(w, http.StatusOK, PathResponse{
		Path:   path,
		Found:  path.Found(),
		Points: points,
	})
}

type RevoxelizeRequest struct {
	Sphere int `json:"sphere"`
	Tile   int `json:"tile"`
}

type RevoxelizeResponse struct {
	Sphere     int   `json:"sphere"`
	Tile       int   `json:"tile"`
	Instances  int   `json:"instances"`
	Triangles  int   `json:"triangles"`
	Spans      int   `json:"spans"`
	DurationMs int64 `json:"duration_ms"`
}

func (a API) HandleRevoxelize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r)
		return
	}

	var req RevoxelizeRequest
	if err := decodeBody(r, &req); err != nil {
		BadRequest(w, err)
		return
	}

	sum, err := a.World.RevoxelizeTile(req.Sphere, req.Tile)
	if err != nil {
		worldError(w, err)
		return
	}

	JSON(w, http.StatusOK, RevoxelizeResponse{
		Sphere:     req.Sphere,
		Tile:       req.Tile,
		Instances:  sum.Instances,
		Triangles:  sum.Triangles,
		Spans:      sum.Spans,
		DurationMs: sum.Duration.Milliseconds(),
	})
}

func worldError(w http.ResponseWriter, err error) {
	switch errors.Type(err) {
	case world.ErrTypeUnknownSphere, voxel.ErrTypeUnknownTile:
		NotFound(w, err)

	case nav.ErrTypeInvalidSpan:
		BadRequest(w, err)

	default:
		InternalServerError(w, err)
	}
}

func decodeBody(r *http.Request, v any) error {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.New("reading body failed").
			WithType(ErrTypeBadRequest).
			Wrap(err)
	}

	if err := json.Unmarshal(b, v); err != nil {
		return errors.New("decoding body failed").
			WithType(ErrTypeBadRequest).
			Wrap(err)
	}
	return nil
}

// queryInt parses an integer query parameter, zero when absent.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid query parameter").
			WithType(ErrTypeBadRequest).
			WithTag("name", name).
			WithTag("value", v).
			Wrap(err)
	}
	return i, nil
}

// queryFloat parses a required float query parameter.
func queryFloat(r *http.Request, name string) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, errors.New("missing query parameter").
			WithType(ErrTypeBadRequest).
			WithTag("name", name)
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("invalid query parameter").
			WithType(ErrTypeBadRequest).
			WithTag("name", name).
			WithTag("value", v).
			Wrap(err)
	}
	return f, nil
}
