package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/archsymex/symex/pkg/cache"
	"github.com/archsymex/symex/pkg/config"
	"github.com/archsymex/symex/pkg/eventstream"
	"github.com/archsymex/symex/pkg/executor"
	"github.com/archsymex/symex/pkg/hooks"
	"github.com/archsymex/symex/pkg/logging"
	"github.com/archsymex/symex/pkg/metrics"
	"github.com/archsymex/symex/pkg/project"
	"github.com/archsymex/symex/pkg/redis"
	"github.com/archsymex/symex/pkg/result"
	"github.com/archsymex/symex/pkg/resultstore"
	"github.com/archsymex/symex/pkg/smt/z3backend"
	"github.com/archsymex/symex/pkg/state"
	"github.com/archsymex/symex/pkg/tracing"
)

// Explore loads the program at target, runs the engine to completion,
// and returns the formatted report text. It is the one place this
// command touches pkg/executor directly; everything else in this
// package is argument parsing and file-watching.
func Explore(target string, cfg *config.EngineConfig) (string, error) {
	arch, err := project.DetectArch(target)
	if err != nil {
		return "", err
	}

	// Decoding the binary/bitcode into a project.Project and an
	// executor.Program is an external collaborator's job (spec.md §1's
	// front-end, explicitly out of scope for this engine); this CLI only
	// demonstrates the shape of the call the front-end would make.
	proj := &project.Project{
		Name:             filepath.Base(target),
		Arch:             arch,
		PointerWidth:     32,
		DefaultAlignment: 4,
		EntryFunction:    "main",
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return "", err
	}
	defer logger.Close()

	runID := logging.NewRunID()

	ctx := z3backend.New()
	ctx.SetLogger(logger.NamedForRun("solver", runID))
	solver := ctx.NewSolver()
	s := state.New(proj, ctx, solver, state.Location{Function: proj.EntryFunction})
	s.Memory.SetLogger(logger.NamedForRun("memory", runID))
	path := state.NewPath(s)

	table := hooks.NewTable()
	table.Logger = logger.NamedForRun("hooks", runID)
	hooks.RegisterRequired(table)

	program, err := loadProgram(target, proj)
	if err != nil {
		return "", err
	}

	teardown, observer, err := setupObservability(runID, cfg)
	if err != nil {
		return "", err
	}
	defer teardown()

	ex := executor.New(program, table, nil)
	ex.Observer = observer
	ex.Logger = logger
	ex.RunID = runID
	emitted, err := ex.Run(path)
	if err != nil {
		return "", err
	}

	opts := result.Options{
		SolveFor:       solveForFromString(cfg.Run.SolveFor),
		SolveInputs:    cfg.Run.SolveInputs,
		SolveSymbolics: cfg.Run.SolveSymbolics,
		SolveOutput:    cfg.Run.SolveOutput,
	}

	var out string
	var reports []*result.Report
	for i, e := range emitted {
		r, err := result.Concretize(i+1, e.Path.State, e.Result, opts, cfg.Run.InputNames, cfg.Run.SymbolicVars)
		if err != nil {
			return "", err
		}
		reports = append(reports, r)
		out += result.FormatText(r) + "\n"
	}

	if cfg.ResultSinkDSN != "" {
		sink, err := resultstore.New(context.Background(), resultstore.Kind(cfg.ResultSinkKind), cfg.ResultSinkDSN)
		if err != nil {
			return "", err
		}
		defer sink.Close()
		if err := sink.Store(context.Background(), proj.Name, reports); err != nil {
			return "", err
		}
	}

	return out, nil
}

// setupObservability brings up whichever of the metrics/tracing/event
// stream/solver-cache collaborators cfg enables, wires the ones that
// implement executor.Observer into a single fan-out observer, and
// returns a teardown func that shuts everything back down. Every piece
// here is optional and additive: a zero-value EngineConfig disables all
// of it and Explore behaves exactly as it did before this function
// existed.
func setupObservability(runID string, cfg *config.EngineConfig) (func(), executor.Observer, error) {
	var teardowns []func()
	teardown := func() {
		for i := len(teardowns) - 1; i >= 0; i-- {
			teardowns[i]()
		}
	}

	var observers []executor.Observer

	if cfg.MetricsAddr != "" {
		engineMetrics, reg := metrics.NewEngineMetrics()
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: reg.Handler()}
		go func() { _ = srv.ListenAndServe() }()
		teardowns = append(teardowns, func() { _ = srv.Close() })
		observers = append(observers, engineMetrics)
	}

	if cfg.TracingExporter != "none" && cfg.TracingExporter != "" {
		tracingCfg := tracing.ConfigForRun(cfg.TracingExporter, cfg.TracingEndpoint, cfg.TracingSampleRatio)
		provider, err := tracing.InitTracing(tracingCfg)
		if err != nil {
			teardown()
			return nil, nil, fmt.Errorf("symex: initializing tracing: %w", err)
		}
		runCtx, rootSpan := tracing.StartPathSpan(context.Background(), runID, "run")
		_ = runCtx
		teardowns = append(teardowns, func() {
			tracing.EndPathSpan(rootSpan, "run-complete", nil)
			_ = provider.Shutdown(context.Background())
		})
	}

	if cfg.EventStreamAddr != "" {
		stream := eventstream.New()
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", stream.ServeWebSocket)
		mux.HandleFunc("/events", stream.ServeSSE)
		// Every live-event subscriber's connection gets its own span, the
		// same way the teacher traces inbound interpreter requests.
		handler := tracing.HTTPTracingMiddleware(nil)(mux)
		srv := &http.Server{Addr: cfg.EventStreamAddr, Handler: handler}
		go func() { _ = srv.ListenAndServe() }()
		teardowns = append(teardowns, func() { _ = srv.Close(); stream.Close() })
		observers = append(observers, &eventObserver{stream: stream, runID: runID})
	}

	if cfg.CacheRedisAddr != "" {
		client, err := redis.NewClientFromString(cfg.CacheRedisAddr)
		if err != nil {
			teardown()
			return nil, nil, fmt.Errorf("symex: parsing cache_redis_addr: %w", err)
		}
		if err := client.Connect(context.Background()); err != nil {
			teardown()
			return nil, nil, fmt.Errorf("symex: connecting to redis: %w", err)
		}
		teardowns = append(teardowns, func() { _ = client.Close() })
		// Built and connection-checked here; consulting it from a solver
		// query requires a fingerprint of the query's expression(s),
		// which only pkg/smt can produce (see DESIGN.md's Known gaps
		// on solver-query memoization for the follow-up).
		_ = cache.NewSolverCache(runID, 4096, client, cfg.CacheTTL)
	}

	if len(observers) == 0 {
		return teardown, nil, nil
	}
	return teardown, &multiObserver{observers: observers}, nil
}

// setupLogging builds the base Logger every subsystem's named logger is
// derived from, per cfg.LogLevel/LogFormat/LogFile (SYMEX_LOG_* env vars
// or their run_config.yaml equivalents).
func setupLogging(cfg *config.EngineConfig) (*logging.Logger, error) {
	level := logging.INFO
	switch cfg.LogLevel {
	case "debug":
		level = logging.DEBUG
	case "warn":
		level = logging.WARN
	case "error":
		level = logging.ERROR
	}

	format := logging.TextFormat
	if cfg.LogFormat == "json" {
		format = logging.JSONFormat
	}

	return logging.NewLogger(logging.LoggerConfig{
		MinLevel: level,
		Format:   format,
		FilePath: cfg.LogFile,
	})
}

func solveForFromString(s string) result.SolveFor {
	switch s {
	case "errors":
		return result.SolveErrors
	case "successes":
		return result.SolveSuccesses
	default:
		return result.SolveAll
	}
}

func dirOf(path string) string  { return filepath.Dir(path) }
func baseOf(path string) string { return filepath.Base(path) }

func loadProgram(target string, proj *project.Project) (executor.Program, error) {
	return nil, fmt.Errorf("symex: no front-end registered for %s - decoding ELF/LLVM IR into an executor.Program is outside this engine's scope", target)
}
