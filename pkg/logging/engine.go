package logging

import "github.com/google/uuid"

// NewRunID mints a correlation id for one engine invocation, the same
// way NewRequestID mints one per HTTP request.
func NewRunID() string { return uuid.New().String() }

// NewPathID mints a correlation id for one explored path.
func NewPathID() string { return uuid.New().String() }

// Named returns a ContextLogger tagged with subsystem under the "component"
// field, the way the teacher scopes a logger per HTTP middleware. The
// executor, solver, memory, and hooks packages each get one of these so
// log lines are filterable by subsystem without a separate Logger
// instance (and its own buffer/file handle) per package.
func (l *Logger) Named(name string) *ContextLogger {
	return l.WithFields(map[string]interface{}{"component": name})
}

// ForRun tags every subsequent log line from the returned logger with
// runID, using the same request-id field the teacher's HTTP middleware
// populates per inbound request - here it is populated once per engine
// run instead.
func (l *Logger) ForRun(runID string) *ContextLogger {
	return l.WithRequestID(runID)
}

// ForPath further tags cl's lines with a path id, layered on top of
// whatever run-level fields ForRun already attached.
func (cl *ContextLogger) ForPath(pathID string) *ContextLogger {
	return cl.WithField("path_id", pathID)
}

// NamedForRun composes Named and ForRun in one call: ContextLogger has
// no way to attach a request id after the fact, so a logger that needs
// both a subsystem component tag and the active RunID has to be built
// from the base Logger directly.
func (l *Logger) NamedForRun(component, runID string) *ContextLogger {
	return l.WithRequestID(runID).WithField("component", component)
}
