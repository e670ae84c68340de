package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ConfigForRun adapts the generic Config to the engine's own knobs
// (pkg/config.EngineConfig's tracing_exporter/tracing_endpoint/
// tracing_sample_ratio), so the CLI never has to build a tracing.Config
// by hand.
func ConfigForRun(exporter, endpoint string, sampleRatio float64) *Config {
	cfg := DefaultConfig()
	cfg.ServiceName = "symex"
	cfg.Enabled = exporter != "none"
	cfg.ExporterType = exporter
	cfg.OTLPEndpoint = endpoint
	cfg.SamplingRate = sampleRatio
	return cfg
}

// StartPathSpan opens the "exec.path" span for one explored path, tagged
// with the run and path identifiers so a trace viewer can correlate it
// with the structured logs pkg/logging emits for the same path.
func StartPathSpan(ctx context.Context, runID, pathID string) (context.Context, trace.Span) {
	return StartSpan(ctx, "exec.path",
		trace.WithAttributes(
			attribute.String("symex.run_id", runID),
			attribute.String("symex.path_id", pathID),
		),
	)
}

// StartHookSpan opens a child span for one hook dispatch within an
// already-open path span.
func StartHookSpan(ctx context.Context, callee string) (context.Context, trace.Span) {
	return StartSpan(ctx, "exec.hook",
		trace.WithAttributes(attribute.String("symex.callee", callee)),
	)
}

// StartSolverSpan opens a child span for one is_sat/get_values call, so
// a slow solver query shows up distinctly from the rest of a hot path.
func StartSolverSpan(ctx context.Context, query string) (context.Context, trace.Span) {
	return StartSpan(ctx, "exec.solver",
		trace.WithAttributes(attribute.String("symex.query", query)),
	)
}

// EndPathSpan records the path's terminal status on span before ending
// it, so a trace query can filter for failed/suppressed paths directly.
func EndPathSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("symex.status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
