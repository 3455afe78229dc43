package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zumicash/zumi-go/internal/core/domain"
)

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. The service is ready when its store answers.
func (h *Handler) Ready(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			WriteError(c, domain.ErrStorageFailure.WithCause(err))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
