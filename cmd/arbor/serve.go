package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arborflow/arbor"
	"github.com/arborflow/arbor/internal/logging"
	"github.com/arborflow/arbor/pkg/adapters/httpapi"
	"github.com/arborflow/arbor/pkg/adapters/yamlgraph"
	"github.com/arborflow/arbor/pkg/observability"
	"github.com/arborflow/arbor/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine over HTTP",
	Long: `Starts a debug HTTP server exposing session execution, snapshots,
event logs and graph validation. Conditions are evaluated by key lookup
in the request context; embed the library for richer evaluators.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		addr, _ := cmd.Flags().GetString("addr")

		store, closefn, err := storeFromFlags(cmd)
		if err != nil {
			return err
		}
		defer closefn()

		return runServe(dir, addr, store)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	addStoreFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

// truthyLookup evaluates a condition by looking it up as a key in the
// evaluation context. Bools count as themselves, strings and numbers as
// non-empty / non-zero. Missing keys are false.
func truthyLookup(_ context.Context, condition string, evalCtx map[string]any) (bool, error) {
	v, ok := evalCtx[condition]
	if !ok {
		return false, nil
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return t != "", nil
	case int:
		return t != 0, nil
	case float64:
		return t != 0, nil
	default:
		return v != nil, nil
	}
}

func runServe(dir, addr string, store sessionStore) error {
	logger := logging.New(slog.LevelInfo)

	loader, err := yamlgraph.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	engine := arbor.New(loader,
		arbor.WithEvaluator(truthyLookup),
		arbor.WithLogger(logger),
		arbor.WithMetrics(metrics),
	)
	sessions := session.NewManager(store, session.WithLogger(logger))

	server := httpapi.NewServer(engine, sessions,
		httpapi.WithLogger(logger),
		httpapi.WithMetricsGatherer(registry),
	)

	logger.Info("serving", "addr", addr, "graph_dir", dir)
	return http.ListenAndServe(addr, server.Handler())
}
