package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// DefaultShutdownTimeout bounds how long in-flight queries can run once the
// servers are shutting down.
const DefaultShutdownTimeout = 10 * time.Second

// Readiness reports whether the world can serve queries. Once drained, it
// stays not ready so load balancers stop routing queries during shutdown.
type Readiness struct {
	check    func() bool
	draining atomic.Bool
}

func NewReadiness(check func() bool) *Readiness {
	return &Readiness{check: check}
}

func (r *Readiness) Ready() bool {
	return !r.draining.Load() && r.check()
}

func (r *Readiness) Drain() {
	r.draining.Store(true)
}

type ServeOptions struct {
	// The time given to in-flight queries when shutting down. Zero means
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Called once the context is done, before the servers are shut down.
	Drain func()
}

// ListenAndServe runs the servers until ctx is done. Shutdown drains the
// readiness first, then stops each server, closing it when in-flight queries
// outlast the shutdown timeout.
func ListenAndServe(ctx context.Context, opts ServeOptions, servers ...*http.Server) {
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	go func() {
		<-ctx.Done()

		if opts.Drain != nil {
			opts.Drain()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				logs.WithTag("timeout", timeout).
					Warn(errors.New("shutting down the server failed").
						WithTag("addr", s.Addr).
						Wrap(err))
				s.Close()
			}
		}
	}()

	var wg sync.WaitGroup

	for _, s := range servers {
		wg.Add(1)

		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("starting server")

			switch err := s.ListenAndServe(); err {
			case nil, http.ErrServerClosed, context.Canceled:
				logs.WithTag("addr", s.Addr).Info("stopping server")

			default:
				logs.Warn(errors.New("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}(s)
	}

	wg.Wait()
}

// MetricsPathFormatter keeps query paths as metric labels, dropping the
// ones of redirected, rejected and unknown requests.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""
	}
	return path
}
