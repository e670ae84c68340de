package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archsymex/symex/pkg/database"
)

// newQueryCmd wires pkg/database's Handler/TableHandler/QueryBuilder -
// otherwise only exercised against the teacher's own interpreter tables -
// against the symex_path_results table resultstore.sqlSink writes into,
// so a run's stored results can be inspected after the fact without a
// hand-rolled SQL client.
func newQueryCmd() *cobra.Command {
	var dsn, runID, status string
	var limit int

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect path results previously written to a result sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("symex: query requires --dsn")
			}

			handler, err := database.NewHandlerFromString(dsn)
			if err != nil {
				return fmt.Errorf("symex: connecting to %s: %w", dsn, err)
			}
			defer handler.Close()

			table := handler.Table("symex_path_results")

			qb := table.Where("path_index", ">=", 0).OrderBy("path_index", "ASC")
			if runID != "" {
				qb = qb.WhereEq("run_id", runID)
			}
			if status != "" {
				qb = qb.WhereEq("status", status)
			}
			if limit > 0 {
				qb = qb.Limit(limit)
			}

			rows, err := qb.Get(cmd.Context())
			if err != nil {
				return fmt.Errorf("symex: querying symex_path_results: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			for _, row := range rows {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Result sink DSN (postgres|mysql|sqlite connection string)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Restrict to results from one run")
	cmd.Flags().StringVar(&status, "status", "", "Restrict to one path status (Ok|Failed|Suppressed|AssumptionUnsat)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to print (0 = unlimited)")

	return cmd
}
