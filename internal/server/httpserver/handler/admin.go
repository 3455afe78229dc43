package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/core/service"
	"github.com/zumicash/zumi-go/internal/infra/buildinfo"
)

// SweepResponse is returned by POST /admin/v1/gc/trigger.
type SweepResponse struct {
	Success      bool   `json:"success"`
	CleanedCount int    `json:"cleaned_count"`
	TriggeredAt  string `json:"triggered_at"`
}

// StatusSummary is returned by GET /admin/v1/status/summary.
type StatusSummary struct {
	Success   bool                 `json:"success"`
	Status    string               `json:"status"`
	Build     buildinfo.Info       `json:"build"`
	Engine    string               `json:"engine"`
	Network   *domain.NetworkInfo  `json:"network,omitempty"`
	StoreOK   bool                 `json:"store_ok"`
	LastSweep *service.SweepResult `json:"last_sweep,omitempty"`
	Time      string               `json:"time"`
}

// TriggerSweep handles POST /admin/v1/gc/trigger.
func (h *Handler) TriggerSweep(c *gin.Context) {
	started := time.Now().UTC()
	n, err := h.sweeper.SweepExpiredSessions(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	h.logger.WithContext(c.Request.Context()).Info("manual sweep", "deleted", n)

	c.JSON(http.StatusOK, SweepResponse{
		Success:      true,
		CleanedCount: n,
		TriggeredAt:  started.Format(time.RFC3339),
	})
}

// StatusSummary handles GET /admin/v1/status/summary.
func (h *Handler) StatusSummary(c *gin.Context) {
	summary := StatusSummary{
		Success: true,
		Status:  "running",
		Build:   buildinfo.Get(),
		Engine:  h.engine,
		StoreOK: h.store == nil || h.store.Ping(c.Request.Context()) == nil,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if h.network != nil {
		info := h.network.NetworkInfo()
		summary.Network = &info
	}
	if h.sweeper != nil {
		summary.LastSweep = h.sweeper.LastResult()
	}
	if !summary.StoreOK {
		summary.Status = "degraded"
	}
	c.JSON(http.StatusOK, summary)
}
