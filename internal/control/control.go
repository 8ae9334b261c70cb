// Package control is the thin admin/control HTTP surface transflowctl talks
// to: queue listing, per-job cancellation, and a health probe. It is not
// the chat-bot frontend (out of scope); it exists only so something has a
// programmatic front door onto C1/C4.
package control

import (
	"net/http"
	"strconv"

	"transflow/internal/database"
	"transflow/internal/models"
	"transflow/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Store is the subset of C1 the control surface exposes.
type Store interface {
	ListUserReadyOrActive(userID int64) ([]models.Job, error)
	ListActive() ([]models.Job, error)
	Get(id uint) (*models.Job, error)
	Cancel(id uint) (bool, error)
}

// Server wraps a gin.Engine bound to a Store and a bearer secret.
type Server struct {
	engine *gin.Engine
	store  Store
	secret string
}

// New builds the control surface. secret is the HKDF-derived token every
// request must present as "Authorization: Bearer <secret>", except /healthz.
func New(store Store, secret string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), logger.GinLogger())

	s := &Server{engine: engine, store: store, secret: secret}
	s.routes()
	return s
}

// Handler returns the http.Handler to serve.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealthz)

	authed := s.engine.Group("/api/v1")
	authed.Use(s.authMiddleware())
	authed.GET("/queue", s.handleListQueue)
	authed.GET("/queue/:id", s.handleGetJob)
	authed.POST("/queue/:id/cancel", s.handleCancel)
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix || header[len(prefix):] != s.secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing control token"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	if err := database.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	stats := database.GetConnectionStats()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"open_conns":   stats.OpenConnections,
		"in_use_conns": stats.InUse,
	})
}

func (s *Server) handleListQueue(c *gin.Context) {
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		jobs, err := s.store.ListUserReadyOrActive(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"jobs": jobs})
		return
	}

	jobs, err := s.store.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) handleGetJob(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}
	job, err := s.store.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleCancel(c *gin.Context) {
	id, ok := parseJobID(c)
	if !ok {
		return
	}
	cancelled, err := s.store.Cancel(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.ControlEvent("cancel", 0, cancelled, "job_id", id)
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func parseJobID(c *gin.Context) (uint, bool) {
	var params struct {
		ID uint `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return 0, false
	}
	return params.ID, true
}
