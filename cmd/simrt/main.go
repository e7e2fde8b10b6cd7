// Command simrt is a demo runtime: it loads a yaml manifest of actors and
// their recurring actions, wires a Continuous engine with a worker pool,
// and runs until interrupted, logging tick statistics along the way.
// Adapted from the teacher's main.go (debug-mode env var, GC/GOMAXPROCS
// tuning, signal handling) generalized from a Docker-monitoring manifest to
// an actor/schedule manifest.
package main

import (
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mlange-42/ark-tools/app"
	"github.com/mlange-42/ark/ecs"

	"cpra/internal/actor"
	"cpra/internal/config"
	"cpra/internal/engine"
	"cpra/internal/reconcile"
	"cpra/internal/telemetry"
	"cpra/pkg/logger"
)

func main() {
	debugMode := os.Getenv("CPRA_DEBUG") == "true"

	manifestPath := "cmd/simrt/manifest.yaml"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	cfgPath := os.Getenv("CPRA_CONFIG")
	var cfg config.EngineConfig
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			panic(err)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	if debugMode {
		cfg.Logging.Development = true
	}

	log, err := logger.NewZapLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting simrt", logger.Component("simrt"))

	// Same aggressive-GC-for-throughput tuning the teacher applies in
	// main.go, appropriate here too since the Control Loop dispatches many
	// short-lived actions per tick.
	debug.SetGCPercent(50)
	runtime.GOMAXPROCS(runtime.NumCPU())

	m, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatal("failed to load manifest", logger.Err(err))
	}
	if len(m.Actors) == 0 {
		log.Fatal("manifest has no actors configured")
	}

	// ark-tools/app.New pre-allocates the ECS world's entity capacity and
	// seeds its RNG, the same construction the teacher uses in main.go
	// (app.New(1024).Seed(123)); simrt's own Control Loop (internal/engine)
	// supersedes app.App's Update/System scheduling, so only the World it
	// constructs is reused here.
	tool := app.New(len(m.Actors)).Seed(1)
	world := actor.NewWorldFromECS(tool.World)

	// Mutation fan-out (spec.md §1): every actor created/removed/changed via
	// World is reconciled through a deduplicating, rate-limited queue rather
	// than notified inline on the mutating goroutine.
	reconciler, err := reconcile.New(4, 50, 10)
	if err != nil {
		log.Fatal("failed to construct reconciler", logger.Err(err))
	}
	defer reconciler.Close()
	reconciler.AddListener(&mutationReporter{log: log})
	world.AddMutationListener(reconcileAdapter{r: reconciler})

	eng, err := engine.NewEngine(cfg.ToEngineConfig())
	if err != nil {
		log.Fatal("failed to construct engine", logger.Err(err))
	}

	metrics := telemetry.NewAggregator()
	tracer := telemetry.NewTracer(256)
	eng.AddEngineListener(&tickReporter{log: log, metrics: metrics, tracer: tracer})

	scheduled, err := materialize(m, world, eng)
	if err != nil {
		log.Fatal("failed to materialize manifest", logger.Err(err))
	}
	log.Info("scheduled actors", logger.Field{Key: "count", Value: len(scheduled)})

	if err := eng.Resume(); err != nil {
		log.Fatal("failed to resume engine", logger.Err(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	reportTicker := time.NewTicker(30 * time.Second)
	defer reportTicker.Stop()

	for {
		select {
		case <-sigCh:
			log.Info("shutdown signal received")
			if err := eng.Stop(); err != nil {
				log.Error("engine stop failed", logger.Err(err))
			}
			ticks, failed := metrics.TickCounts()
			log.Info("final tick statistics",
				logger.Field{Key: "ticks", Value: ticks},
				logger.Field{Key: "ticks_with_failure", Value: failed},
			)
			return
		case <-reportTicker.C:
			ticks, failed := metrics.TickCounts()
			log.Info("tick statistics",
				logger.Field{Key: "ticks", Value: ticks},
				logger.Field{Key: "ticks_with_failure", Value: failed},
				logger.Field{Key: "inflight_spans", Value: tracer.Inflight()},
			)
		}
	}
}

// tickReporter folds tick boundaries and action failures into the
// telemetry aggregator, grounded on the teacher's monitoringLoop (periodic
// logging of queue throughput metrics) generalized from a dedicated polling
// goroutine to an EngineListener callback.
type tickReporter struct {
	log     logger.Logger
	metrics *telemetry.Aggregator
	tracer  *telemetry.Tracer

	mu        sync.Mutex
	tickFailed bool
}

func (r *tickReporter) TickStarted(tick uint64) {
	r.mu.Lock()
	r.tickFailed = false
	r.mu.Unlock()
}

func (r *tickReporter) TickCompleted(tick uint64, delta time.Duration) {
	r.mu.Lock()
	failed := r.tickFailed
	r.mu.Unlock()
	r.metrics.RecordTick(failed)
}

func (r *tickReporter) ActionFailed(id uuid.UUID, err error, recovered any) {
	r.mu.Lock()
	r.tickFailed = true
	r.mu.Unlock()

	if recovered != nil {
		r.log.Error("action panicked",
			logger.ActionID(id),
			logger.Field{Key: "recovered", Value: recovered},
		)
		return
	}
	r.log.Error("action failed", logger.ActionID(id), logger.Err(err))
}

// reconcileAdapter satisfies actor.MutationListener and forwards every
// notification onto a Reconciler, keeping internal/actor free of a direct
// dependency on internal/reconcile's concrete types.
type reconcileAdapter struct {
	r *reconcile.Reconciler
}

func (a reconcileAdapter) OnMutation(kind actor.MutationKind, e ecs.Entity, key string) {
	a.r.Enqueue(reconcile.Mutation{Kind: reconcile.Kind(kind), Entity: e, Key: key})
}

// mutationReporter logs each mutation once the Reconciler has dequeued and
// rate-limited it, grounded on tickReporter's own log-on-callback shape.
type mutationReporter struct {
	log logger.Logger
}

func (m *mutationReporter) Reconcile(mut reconcile.Mutation) {
	m.log.Debug("actor mutation reconciled",
		logger.Component("reconcile"),
		logger.Field{Key: "kind", Value: mut.Kind.String()},
		logger.Field{Key: "key", Value: mut.Key},
	)
}
