package http

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestMetricsPathFormatter(t *testing.T) {
	tests := []struct {
		status int
		path   string
	}{
		{status: http.StatusOK, path: "/path"},
		{status: http.StatusMovedPermanently},
		{status: http.StatusBadRequest},
		{status: http.StatusNotFound},
		{status: http.StatusMethodNotAllowed},
		{status: http.StatusInternalServerError, path: "/path"},
	}

	for _, test := range tests {
		t.Run(http.StatusText(test.status), func(t *testing.T) {
			require.Equal(t, test.path, MetricsPathFormatter(test.status, "/path"))
		})
	}
}

func TestHandleReadyCheck(t *testing.T) {
	ready := false
	h := HandleReadyCheck(func() bool { return ready })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleVersion(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleVersion("v1.2.3")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "v1.2.3", rec.Body.String())

	rec = httptest.NewRecorder()
	HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, errors.New("nope").WithType(ErrTypeBadRequest))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decode[errorResponse](t, rec)
	require.Equal(t, ErrTypeBadRequest, res.Type)
	require.NotEmpty(t, res.Error)
}

func TestListenAndServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		ListenAndServe(ctx, ServeOptions{}, &http.Server{Addr: "127.0.0.1:0"})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestReadiness(t *testing.T) {
	voxelized := false
	r := NewReadiness(func() bool { return voxelized })
	require.False(t, r.Ready())

	voxelized = true
	require.True(t, r.Ready())

	r.Drain()
	require.False(t, r.Ready())

	rec := httptest.NewRecorder()
	HandleReadyCheck(r.Ready)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListenAndServeShutdownTimeout(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	s := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readiness := NewReadiness(func() bool { return true })
	done := make(chan struct{})
	go func() {
		defer close(done)
		ListenAndServe(ctx, ServeOptions{
			ShutdownTimeout: 50 * time.Millisecond,
			Drain:           readiness.Drain,
		}, s)
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	queried := make(chan error, 1)
	go func() {
		res, err := http.Get("http://" + addr + "/path")
		if err == nil {
			res.Body.Close()
		}
		queried <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("query not started")
	}
	require.True(t, readiness.Ready())

	cancel()

	select {
	case err := <-queried:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight query outlived the shutdown timeout")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	require.False(t, readiness.Ready())
}
