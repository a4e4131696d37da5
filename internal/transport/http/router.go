package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"quizflow-service/internal/app"
	"quizflow-service/internal/ctxlog"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewRouter wires the REST API, the runtime websocket and /healthz.
func NewRouter(service *app.FlowService, logger *slog.Logger, checks map[string]HealthCheck) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// Editors and players run in browsers on other origins.
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE"}
	r.Use(cors.New(config))

	h := NewHandler(service)
	api := r.Group("/api")
	{
		api.POST("/versions", h.CreateVersion)
		api.GET("/versions", h.ListVersions)
		api.GET("/versions/:id", h.GetGraph)
		api.POST("/versions/:id/nodes", h.AddNode)
		api.PUT("/versions/:id/nodes/:nodeId", h.UpdateNode)
		api.DELETE("/versions/:id/nodes/:nodeId", h.DeleteNode)
		api.POST("/versions/:id/edges", h.AddEdge)
		api.PUT("/versions/:id/edges/:edgeId", h.UpdateEdge)
		api.DELETE("/versions/:id/edges/:edgeId", h.DeleteEdge)
		api.POST("/versions/:id/validate", h.ValidateVersion)
		api.POST("/versions/:id/publish", h.PublishVersion)
		api.POST("/versions/:id/fork", h.ForkVersion)
		api.GET("/quizzes/:name/active", h.ActiveVersion)

		api.POST("/versions/:id/preview", h.Preview)
		api.GET("/versions/:id/metrics", h.Metrics)
		api.GET("/versions/:id/export", h.Export)

		api.POST("/versions/:id/runs", h.StartRun)
		api.GET("/runs/:id", h.GetRun)
		api.POST("/runs/:id/answers", h.SubmitAnswer)
	}

	r.GET("/ws/runs", gin.WrapF(NewWSHandler(service).ServeWS))
	r.GET("/healthz", healthHandler(checks))
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		attrs := []any{"status", status, "duration", time.Since(start)}
		if status >= http.StatusInternalServerError {
			reqLogger.Error("request failed", append(attrs, "errors", c.Errors.String())...)
			return
		}
		reqLogger.Debug("request handled", attrs...)
	}
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		failed := gin.H{}
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "errors": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
