package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/trustle-io/taskscheduler/internal/health"
	"github.com/trustle-io/taskscheduler/internal/transport/http/handler"
	"github.com/trustle-io/taskscheduler/internal/transport/http/middleware"
)

func NewRouter(logger *slog.Logger, taskHandler *handler.TaskHandler, checker *health.Checker, apiKey string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), sloggin.New(logger), middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		result := checker.Readiness(c.Request.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	})

	tasks := r.Group("/", middleware.APIKey(apiKey))
	tasks.POST("/tasks", taskHandler.Create)
	tasks.PATCH("/tasks/:id", taskHandler.Update)
	tasks.GET("/tasks/:id", taskHandler.GetByID)
	tasks.GET("/tasks", taskHandler.List)
	tasks.GET("/tasks/:id/executions", taskHandler.ListExecutions)
	tasks.GET("/executions", taskHandler.ListAllExecutions)
	tasks.GET("/upcoming", taskHandler.ListUpcoming)
	tasks.DELETE("/tasks/:id", taskHandler.Delete)

	return r
}
