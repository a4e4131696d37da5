package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"quizflow-service/internal/app"
	"quizflow-service/internal/config"
	"quizflow-service/internal/ctxlog"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
	"quizflow-service/internal/graphfile"
	"quizflow-service/internal/infra/postgres"
)

// NewValidateCmd checks a graph document and fails when it has errors.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph-file>",
		Short: "Validate a quiz graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := graphfile.Load(args[0])
			if err != nil {
				return err
			}
			result := flow.Validate(graph.Nodes, graph.Edges)
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.IsValid {
				return fmt.Errorf("%s: %w", args[0], domain.ErrValidationFailed)
			}
			return nil
		},
	}
}

// NewSimulateCmd prints the path a response set takes through a graph.
func NewSimulateCmd() *cobra.Command {
	var raw string
	cmd := &cobra.Command{
		Use:   "simulate <graph-file>",
		Short: "Simulate a run through a quiz graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := graphfile.Load(args[0])
			if err != nil {
				return err
			}
			responses := domain.NewResponses()
			if err := json.Unmarshal([]byte(raw), &responses); err != nil {
				return fmt.Errorf("parse --responses: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), flow.SimulatePath(graph.Nodes, graph.Edges, responses))
		},
	}
	cmd.Flags().StringVar(&raw, "responses", "{}", "answers as a JSON object keyed by node key")
	return cmd
}

// NewMetricsCmd computes analytics for a batch of runs against a graph.
func NewMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <graph-file> <runs-file>",
		Short: "Compute funnel and response metrics from exported runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := graphfile.Load(args[0])
			if err != nil {
				return err
			}
			runs, err := graphfile.LoadRuns(args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), flow.ComputeMetrics(graph.Nodes, runs))
		},
	}
}

// NewImportCmd writes graph documents into the configured Postgres store.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <graph-file>...",
		Short: "Import quiz graph files into Postgres",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			logger := cfg.Logger()
			ctx := ctxlog.WithLogger(cmd.Context(), logger)

			db := openBunDB(cfg.Postgres.URL)
			defer db.Close()
			if err := migrateDB(ctx, db, logger); err != nil {
				return err
			}
			store := postgres.NewGraphStore(db)
			for _, path := range args {
				graph, err := importGraph(ctx, store, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", graph.Version.ID, graph.Version.Name, graph.Version.Status)
			}
			return nil
		},
	}
}

// importGraph loads a graph file and stores it as is. Publishing a file
// marked published still requires it to validate.
func importGraph(ctx context.Context, store app.GraphStore, path string) (domain.QuizGraph, error) {
	graph, err := graphfile.Load(path)
	if err != nil {
		return domain.QuizGraph{}, err
	}
	now := time.Now().UTC()
	if graph.Version.CreatedAt.IsZero() {
		graph.Version.CreatedAt = now
	}
	graph.Version.UpdatedAt = now
	if graph.Version.IsPublished() {
		if result := flow.Validate(graph.Nodes, graph.Edges); !result.IsValid {
			return domain.QuizGraph{}, fmt.Errorf("%s: %w", path, &app.ValidationError{Result: result})
		}
		if graph.Version.PublishedAt == nil {
			graph.Version.PublishedAt = &now
		}
	}
	if err := store.CreateGraph(ctx, graph); err != nil {
		return domain.QuizGraph{}, fmt.Errorf("import %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Info("graph imported", "file", path, "version", graph.Version.ID, "nodes", len(graph.Nodes))
	return graph, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
