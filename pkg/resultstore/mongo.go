package resultstore

import (
	"context"
	"fmt"

	"github.com/archsymex/symex/pkg/mongodb"
	"github.com/archsymex/symex/pkg/result"
)

type mongoSink struct {
	handler *mongodb.Handler
}

func newMongoSink(uri string) (*mongoSink, error) {
	h, err := mongodb.NewHandlerFromURI(uri, "symex")
	if err != nil {
		return nil, fmt.Errorf("resultstore: %w", err)
	}
	return &mongoSink{handler: h}, nil
}

func (s *mongoSink) Store(ctx context.Context, runID string, reports []*result.Report) error {
	docs := make([]map[string]interface{}, 0, len(reports))
	for _, r := range reports {
		doc := map[string]interface{}{
			"run_id":     runID,
			"path_index": r.PathIndex,
			"status":     r.Status.String(),
		}
		if r.ConcretizedInputs != nil {
			doc["concretized_inputs"] = r.ConcretizedInputs
		}
		if r.ConcretizedSymbolics != nil {
			doc["concretized_symbolics"] = r.ConcretizedSymbolics
		}
		if r.ConcretizedOutput != nil {
			doc["concretized_output"] = *r.ConcretizedOutput
		}
		if r.Failure != nil {
			doc["failure_message"] = r.Failure.Message
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := s.handler.Collection("path_results").InsertMany(docs)
	return err
}

func (s *mongoSink) Close() error { return s.handler.Close() }
