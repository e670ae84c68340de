package metrics

// EngineMetrics wraps a Metrics registry with the counters spec.md's
// executor actually produces: paths explored/terminated by status,
// forks created, solver queries issued (and how many came back
// Unknown), and a histogram of per-path step counts. It is built on
// top of the same custom-counter/gauge/histogram registration the
// teacher's HTTP metrics use, rather than a second prometheus wiring.
type EngineMetrics struct {
	m *Metrics
}

const (
	metricPathsTotal    = "symex_paths_total"
	metricForksTotal    = "symex_forks_total"
	metricSolverQueries = "symex_solver_queries_total"
	metricSolverUnknown = "symex_solver_unknown_total"
	metricPathSteps     = "symex_path_steps"
)

// NewEngineMetrics registers the engine's metric families against a
// fresh registry. Use m.Handler() (embedded via Metrics) to expose them.
func NewEngineMetrics() (*EngineMetrics, *Metrics) {
	m := NewMetrics(Config{Namespace: "symex", Subsystem: "engine"})
	_ = m.RegisterCustomCounter(metricPathsTotal, "Paths terminated, by status", []string{"status"})
	_ = m.RegisterCustomCounter(metricForksTotal, "Paths forked at a branch or switch", nil)
	_ = m.RegisterCustomCounter(metricSolverQueries, "Solver queries issued, by kind", []string{"kind"})
	_ = m.RegisterCustomCounter(metricSolverUnknown, "Solver queries that returned Unknown", []string{"kind"})
	_ = m.RegisterCustomHistogram(metricPathSteps, "Instructions executed per terminated path", nil, nil)
	return &EngineMetrics{m: m}, m
}

// PathTerminated records one path reaching a terminal status (one of
// result.Status's String() values: Ok, Failed, Suppressed,
// AssumptionUnsat) after the given number of steps.
func (e *EngineMetrics) PathTerminated(status string, steps int) {
	e.m.IncrementCustomCounter(metricPathsTotal, map[string]string{"status": status})
	e.m.ObserveCustomHistogram(metricPathSteps, float64(steps), nil)
}

// Forked records one branch/switch producing an additional path.
func (e *EngineMetrics) Forked() {
	e.m.IncrementCustomCounter(metricForksTotal, nil)
}

// SolverQuery records one is_sat/get_values/must_be_equal/can_equal
// call, and whether the backend returned Unknown instead of a
// definitive answer.
func (e *EngineMetrics) SolverQuery(kind string, unknown bool) {
	e.m.IncrementCustomCounter(metricSolverQueries, map[string]string{"kind": kind})
	if unknown {
		e.m.IncrementCustomCounter(metricSolverUnknown, map[string]string{"kind": kind})
	}
}
