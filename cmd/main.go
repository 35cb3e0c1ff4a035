package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"syscall"
	"time"

	worldconfig "github.com/GeraltShaowen233/VoxelDemo/config"
	"github.com/GeraltShaowen233/VoxelDemo/featureflag"
	sphttp "github.com/GeraltShaowen233/VoxelDemo/http"
	"github.com/GeraltShaowen233/VoxelDemo/raster"
	"github.com/GeraltShaowen233/VoxelDemo/scene"
	"github.com/GeraltShaowen233/VoxelDemo/smoketest"
	"github.com/GeraltShaowen233/VoxelDemo/world"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The server version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "spherenav_info",
		Help:        "Sphere navigation server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config keys readable when the binary is obfuscated, otherwise the
// cli package generates garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr            string        `cli:""        env:"SPHERENAV_ADDR"             help:"Listening address for queries."`
	AdminAddr       string        `cli:""        env:"SPHERENAV_ADMIN_ADDR"       help:"Admin listening address."`
	World           string        `cli:""        env:"SPHERENAV_WORLD"            help:"The YAML file describing the spheres to build."`
	ShutdownTimeout time.Duration `cli:",hidden" env:"SPHERENAV_SHUTDOWN_TIMEOUT" help:"The time given to in-flight queries on shutdown."`
	LogLevel        string        `cli:""        env:"SPHERENAV_LOG_LEVEL"        help:"Log level (debug|info|warning|error)."`
	LogIndent       bool          `cli:""        env:"SPHERENAV_LOG_INDENT"       help:"Indent logs."`
	FeatureFlags    []string      `cli:",hidden" env:"SPHERENAV_FEATURE_FLAGS"    help:"Comma separated feature flags."`
	Version         bool          `cli:""        env:"-"                          help:"Show version."`
	Help            bool          `cli:""        env:"-"                          help:"Show help."`
}

func main() {
	conf := config{
		Addr:            ":4000",
		AdminAddr:       ":18190",
		World:           "world.yaml",
		ShutdownTimeout: sphttp.DefaultShutdownTimeout,
		LogLevel:        logs.InfoLevel.String(),
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Builds voxelized spheres and serves path queries over them.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	worldConf, err := worldconfig.Load(conf.World)
	if err != nil {
		logs.Fatal(err)
	}

	flags := featureflag.New(conf.FeatureFlags)
	w, err := newWorld(worldConf, flags)
	if err != nil {
		logs.Fatal(err)
	}

	go voxelize(w)
	readiness := sphttp.NewReadiness(w.Ready)

	var service http.ServeMux
	sphttp.API{World: w}.Register(&service)
	service.Handle("/health", sphttp.HandleWithCORS(http.HandlerFunc(sphttp.HandleHealthCheck)))
	service.Handle("/version", sphttp.HandleWithCORS(sphttp.HandleVersion(version)))
	service.Handle("/ready", sphttp.HandleWithCORS(sphttp.HandleReadyCheck(readiness.Ready)))
	service.Handle("/smoke-test", sphttp.HandleWithCORS(smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Navigator:  w,
		SendResult: smoketest.LogResult,
	})))

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", sphttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", sphttp.HandleReadyCheck(readiness.Ready))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("world", conf.World).
		WithTag("spheres", len(worldConf.Spheres)).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting sphere navigation server")

	sphttp.ListenAndServe(ctx, sphttp.ServeOptions{
		ShutdownTimeout: conf.ShutdownTimeout,
		Drain:           readiness.Drain,
	},
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			sphttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

// newWorld loads the scene and builds the configured spheres. Spheres are
// voxelized separately.
func newWorld(conf worldconfig.World, flags featureflag.FeatureFlag) (*world.World, error) {
	src := scene.NewScene(conf.SceneResolution)
	if conf.Scene != "" {
		var err error
		if src, err = scene.LoadFile(conf.Scene); err != nil {
			return nil, errors.New("loading scene failed").Wrap(err)
		}
	}

	rasterizer, err := conf.Voxelization.NewRasterizer()
	if err != nil {
		return nil, err
	}
	flags.IfSet(featureflag.FlagSampleRasterizer, func() {
		rasterizer = raster.Sampler{}
	})

	w := world.New(src, world.Options{
		Rasterizer:    rasterizer,
		Voxel:         conf.Voxelization.Params(),
		MaxExpansions: conf.Pathfinding.MaxExpansions,
		StepFactor:    conf.Pathfinding.StepFactor,
		Reopen:        flags.IsSet(featureflag.FlagReopenClosedNodes),
		CacheSize:     conf.Pathfinding.CacheSize,
		DisableCache:  flags.IsSet(featureflag.FlagDisablePathCache),
		Seed:          conf.Pathfinding.Seed,
	})

	for _, s := range conf.Spheres {
		if _, err := w.BuildSphere(s.Params()); err != nil {
			return nil, err
		}
	}

	logs.WithTag("scene", conf.Scene).
		WithTag("instances", humanize.Comma(int64(src.Len()))).
		Info("world built")
	return w, nil
}

func voxelize(w *world.World) {
	for _, s := range w.Spheres() {
		if _, err := w.Voxelize(s.Index); err != nil {
			logs.Fatal(err)
		}
	}
}
