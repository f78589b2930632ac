package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/metrics"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/advisory", s.advisory.Handle)
		v1.GET("/health", s.handleGetHealth)
	}

	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	s.router.GET("/", s.handleRoot)
}

// handleRoot identifies the service
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Charlie Advisory API",
		"status":  "running",
		"time":    time.Now().UTC(),
	})
}

// handleGetHealth returns a simple health check (for load balancers)
func (s *Server) handleGetHealth(c *gin.Context) {
	status := gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	}
	if !s.advisory.client.Configured() {
		status["status"] = "degraded"
		status["advisory"] = "not_configured"
	}
	c.JSON(http.StatusOK, status)
}
