package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quizflow-service/internal/app"
	"quizflow-service/internal/config"
	"quizflow-service/internal/ctxlog"
	"quizflow-service/internal/infra/memory"
	"quizflow-service/internal/infra/postgres"
	rediscache "quizflow-service/internal/infra/redis"
	transport "quizflow-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	var seeds []string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz flow server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, seeds)
		},
	}
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "graph files to import before serving")
	return cmd
}

// stack is the wired service with the resources it holds open.
type stack struct {
	service *app.FlowService
	graphs  app.GraphStore
	checks  map[string]transport.HealthCheck
	closers []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildStack picks Postgres for storage when a URL is configured and Redis
// for caches and cursors when an address is configured. Anything left
// unconfigured runs in process memory.
func buildStack(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stack, error) {
	st := &stack{checks: map[string]transport.HealthCheck{}}

	var (
		graphs app.GraphStore = memory.NewGraphStore()
		runs   app.RunStore   = memory.NewRunStore()
	)
	if cfg.Postgres.URL != "" {
		db := openBunDB(cfg.Postgres.URL)
		st.closers = append(st.closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db, logger); err != nil {
			st.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		graphs = postgres.NewGraphStore(db)
		runs = postgres.NewRunStore(pool)
		st.checks["postgres"] = func(ctx context.Context) error { return pool.Ping(ctx) }
	}

	graphTTL := config.TTLDuration(cfg.Cache.GraphTTL, 10*time.Minute)
	metricsTTL := config.TTLDuration(cfg.Cache.MetricsTTL, time.Minute)
	cursorTTL := config.TTLDuration(cfg.Runs.CursorTTL, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))

	var (
		cursors app.CursorStore  = memory.NewCursorStore()
		reader  app.GraphReader  = memory.NewGraphCache(graphs, graphTTL)
		metrics app.MetricsCache = memory.NewMetricsCache(metricsTTL)
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.closers = append(st.closers, func() { _ = client.Close() })
		cursors = rediscache.NewCursorStore(client, cursorTTL)
		reader = rediscache.NewGraphCache(client, graphs, graphTTL)
		metrics = rediscache.NewMetricsCache(client, metricsTTL)
		st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	st.graphs = graphs
	st.service = app.NewFlowService(graphs, runs, cursors,
		app.WithGraphCache(reader),
		app.WithMetricsCache(metrics),
	)
	logger.Info("stack ready",
		"postgres", cfg.Postgres.URL != "",
		"redis", cfg.Redis.Addr != "",
		"graphTtl", graphTTL,
		"metricsTtl", metricsTTL,
		"cursorTtl", cursorTTL,
	)
	return st, nil
}

func runServer(ctx context.Context, configPath, portFlag string, seeds []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)
	ctx = ctxlog.WithLogger(ctx, logger)
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := buildStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, path := range seeds {
		if _, err := importGraph(ctx, st.graphs, path); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(st.service, logger, st.checks),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz flow service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
