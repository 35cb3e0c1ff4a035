package nav

import (
	"time"

	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/GeraltShaowen233/VoxelDemo/sphere"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// FinderWithLogs logs every path query.
func FinderWithLogs(f Finder) Finder {
	return &finderWithLogs{
		Finder: f,
	}
}

type finderWithLogs struct {
	Finder
}

func (f *finderWithLogs) FindPath(s *sphere.Sphere, from, to registry.SpanRef) (Path, error) {
	start := time.Now()

	path, err := f.Finder.FindPath(s, from, to)
	if err != nil {
		logs.Warn(err)
		return path, err
	}

	entry := logs.WithTag("sphere", s.Index).
		WithTag("from", from).
		WithTag("to", to).
		WithTag("length", len(path.Spans)).
		WithTag("expansions", path.Expansions).
		WithTag("duration", time.Since(start).String())

	switch {
	case path.Aborted:
		entry.Info("path search aborted")

	case !path.Found():
		entry.Debug("no path found")

	default:
		entry.Debug("path found")
	}
	return path, nil
}
