package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"habit-tracker/internal/service"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	Tasks       *service.TaskService
	Stats       *service.StatsService
	Users       Authenticator
	Jobs        Triggers
	Health      func(ctx context.Context) error
	CORSOrigins []string
}

// NewRouter registers all routes on a fresh engine.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())
	if len(deps.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = deps.CORSOrigins
		cfg.AllowCredentials = true
		cfg.AddAllowHeaders("Authorization", headerRequestID)
		cfg.AddExposeHeaders(headerRequestID)
		r.Use(cors.New(cfg))
	}

	r.GET("/health", healthHandler(deps.Health))

	api := r.Group("/api", RequireUser(deps.Users))
	tasks := NewTaskHandler(deps.Tasks, deps.Stats)
	registerTaskRoutes(api, tasks)

	if deps.Jobs != nil {
		registerTriggerRoutes(api.Group("/trigger", RequireTrigger()), NewTriggerHandler(deps.Jobs))
	}
	return r
}

func registerTaskRoutes(api *gin.RouterGroup, h *TaskHandler) {
	api.POST("/tasks", h.Create)
	api.GET("/tasks", h.List)
	api.GET("/tasks/charts", h.Charts)
	api.PATCH("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
	api.POST("/tasks/:id/toggle", h.Toggle)
	api.POST("/tasks/:id/history", h.AddHistory)
	api.GET("/version", h.Version)
}

func registerTriggerRoutes(api *gin.RouterGroup, h *TriggerHandler) {
	api.POST("/morning", h.Morning)
	api.POST("/evening", h.Evening)
	api.POST("/weekly", h.Weekly)
	api.POST("/rollover", h.Rollover)
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Serve runs the handler on addr until ctx is cancelled, then drains open
// requests for up to five seconds.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[info] http listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen %s: %w", addr, err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Println("[info] http server stopped")
	return nil
}
