package smoketest

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	sphttp "github.com/GeraltShaowen233/VoxelDemo/http"
	"github.com/GeraltShaowen233/VoxelDemo/nav"
	"github.com/GeraltShaowen233/VoxelDemo/registry"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/errgroup"
)

const (
	ErrTypeNoSpan = "no_span"
)

const (
	// DefaultCount is the number of path queries of a smoke test when the
	// request does not say.
	DefaultCount = 32

	DefaultWorkers = 4
)

// Navigator is what a smoke test exercises.
type Navigator interface {
	RandomSpanFrom(sphere int, rnd *rand.Rand) (registry.SpanRef, bool, error)
	FindPath(sphere int, from, to registry.SpanRef) (nav.Path, error)
}

// Request starts a smoke test.
type Request struct {
	Sphere  int    `json:"sphere"`
	Count   int    `json:"count"`
	Seed    uint64 `json:"seed"`
	Workers int    `json:"workers"`
}

// Result sums up the path queries run by a smoke test.
type Result struct {
	Sphere     int     `json:"sphere"`
	Queries    int     `json:"queries"`
	Found      int     `json:"found"`
	NotFound   int     `json:"not_found"`
	Aborted    int     `json:"aborted"`
	Expansions int     `json:"expansions"`
	LatencyMs  float64 `json:"latency_ms"`
	Error      string  `json:"error,omitempty"`
}

type Options struct {
	Navigator  Navigator
	SendResult func(context.Context, Result) error
}

// Run searches paths between random pairs of spans of a sphere. Pairs are
// drawn from the request seed, then searched by up to Workers goroutines. It
// stops early when the context is done.
func Run(ctx context.Context, n Navigator, req Request) (Result, error) {
	count := req.Count
	if count <= 0 {
		count = DefaultCount
	}
	workers := req.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	res := Result{Sphere: req.Sphere}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	rnd := rand.New(rand.NewPCG(req.Seed, req.Seed+1))
	pairs := make([][2]registry.SpanRef, count)
	for i := range pairs {
		from, ok, err := n.RandomSpanFrom(req.Sphere, rnd)
		if err != nil {
			return res, err
		}
		if !ok {
			return res, errors.New("sphere has no span").
				WithType(ErrTypeNoSpan).
				WithTag("sphere", req.Sphere)
		}
		to, _, err := n.RandomSpanFrom(req.Sphere, rnd)
		if err != nil {
			return res, err
		}
		pairs[i] = [2]registry.SpanRef{from, to}
	}

	var mutex sync.Mutex
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			path, err := n.FindPath(req.Sphere, pair[0], pair[1])
			if err != nil {
				return err
			}

			mutex.Lock()
			defer mutex.Unlock()

			res.Queries++
			res.Expansions += path.Expansions
			switch {
			case path.Aborted:
				res.Aborted++

			case path.Found():
				res.Found++

			default:
				res.NotFound++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	if res.Queries != 0 {
		res.LatencyMs = float64(time.Since(start).Microseconds()) / 1000 / float64(res.Queries)
	}
	return res, nil
}

// HandleSmokeTest starts a smoke test in the background and reports its
// result through opts.SendResult.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sphttp.MethodNotAllowed(w, r)
			return
		}

		b, err := io.ReadAll(r.Body)
		if err != nil {
			sphttp.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil {
			sphttp.BadRequest(w, errors.New("decoding smoke test request failed").
				WithType(sphttp.ErrTypeBadRequest).
				Wrap(err))
			return
		}

		go func() {
			res, err := Run(ctx, opts.Navigator, req)
			if err != nil {
				res.Error = err.Error()
				logs.Warn(errors.New("smoke test failed").
					WithTag("sphere", req.Sphere).
					Wrap(err))
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("sphere", req.Sphere).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusAccepted)
	}
}

// LogResult is a SendResult that logs smoke test results.
func LogResult(_ context.Context, res Result) error {
	logs.WithTag("sphere", res.Sphere).
		WithTag("queries", res.Queries).
		WithTag("found", res.Found).
		WithTag("not_found", res.NotFound).
		WithTag("aborted", res.Aborted).
		WithTag("expansions", res.Expansions).
		WithTag("latency_ms", res.LatencyMs).
		Info("smoke test done")
	return nil
}
