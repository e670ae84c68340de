// Package resultstore persists the concretized reports a run emits
// (spec.md §6's "Emitted results") to an external sink - a CI dashboard,
// a bug tracker - for consumption after the run. It is output-only: a
// sink is never read back into a future Run, preserving the "no
// stateful persistence of exploration" Non-goal.
package resultstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/archsymex/symex/pkg/database"
	"github.com/archsymex/symex/pkg/memory"
	"github.com/archsymex/symex/pkg/result"
)

// marshalBuffers reuses bytes.Buffers across reports within one Store
// call, since a large run can emit thousands of reports and each one
// needs two small JSON encodes.
var marshalBuffers = memory.NewBytesBufferPool()

func marshalJSON(v interface{}) (string, error) {
	buf := marshalBuffers.Get()
	defer marshalBuffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Sink is implemented by every backing store a run can be configured to
// report into.
type Sink interface {
	Store(ctx context.Context, runID string, reports []*result.Report) error
	Close() error
}

// Kind selects which concrete Sink New builds, mirroring
// pkg/config.EngineConfig.ResultSinkKind.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindSQLite   Kind = "sqlite"
	KindMongo    Kind = "mongo"
)

// New builds the Sink named by kind, connected to dsn.
func New(ctx context.Context, kind Kind, dsn string) (Sink, error) {
	switch kind {
	case KindPostgres, KindMySQL, KindSQLite:
		db, err := database.NewDatabaseFromString(dsn)
		if err != nil {
			return nil, fmt.Errorf("resultstore: %w", err)
		}
		if err := db.Connect(ctx); err != nil {
			return nil, fmt.Errorf("resultstore: connecting: %w", err)
		}
		s := &sqlSink{db: db}
		if err := s.ensureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case KindMongo:
		return newMongoSink(dsn)
	default:
		return nil, fmt.Errorf("resultstore: unsupported sink kind %q", kind)
	}
}

// sqlSink persists reports as one row per path, with the concretized
// maps stored as JSON - the shapes vary per-run (input/symbol names come
// from the analyzed program), so a flexible schema beats a wide table.
type sqlSink struct {
	db database.Database
}

func (s *sqlSink) ensureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS symex_path_results (
	run_id TEXT NOT NULL,
	path_index INTEGER NOT NULL,
	status TEXT NOT NULL,
	concretized_inputs TEXT,
	concretized_symbolics TEXT,
	concretized_output TEXT,
	failure_message TEXT
)`)
	return err
}

// Store uses "?" placeholders, which MySQL and SQLite accept natively;
// a Postgres sink needs "$1"-style placeholders rewritten first
// (lib/pq does not support "?"). Left as a driver-specific concern for
// whichever pq wrapper sits in front of database.Database, not this
// sink.
func (s *sqlSink) Store(ctx context.Context, runID string, reports []*result.Report) error {
	for _, r := range reports {
		inputs, err := marshalJSON(r.ConcretizedInputs)
		if err != nil {
			return fmt.Errorf("resultstore: encoding inputs for path %d: %w", r.PathIndex, err)
		}
		symbolics, err := marshalJSON(r.ConcretizedSymbolics)
		if err != nil {
			return fmt.Errorf("resultstore: encoding symbolics for path %d: %w", r.PathIndex, err)
		}
		var output sql.NullString
		if r.ConcretizedOutput != nil {
			output = sql.NullString{String: fmt.Sprintf("%d", *r.ConcretizedOutput), Valid: true}
		}
		var failureMsg sql.NullString
		if r.Failure != nil {
			failureMsg = sql.NullString{String: r.Failure.Message, Valid: true}
		}

		_, err = s.db.Exec(ctx,
			`INSERT INTO symex_path_results (run_id, path_index, status, concretized_inputs, concretized_symbolics, concretized_output, failure_message) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, r.PathIndex, r.Status.String(), inputs, symbolics, output, failureMsg,
		)
		if err != nil {
			return fmt.Errorf("resultstore: storing path %d: %w", r.PathIndex, err)
		}
	}
	return nil
}

func (s *sqlSink) Close() error { return s.db.Close() }
