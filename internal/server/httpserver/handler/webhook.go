package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/core/service"
)

// maxWebhookBody bounds the stored notification payload.
const maxWebhookBody = 64 << 10

// IngestWebhook handles POST /api/webhooks/chain. The raw body is kept as
// the notification payload.
func (h *Handler) IngestWebhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		WriteError(c, domain.ErrBadRequest.WithDetails("unreadable body"))
		return
	}
	if len(raw) > maxWebhookBody {
		WriteError(c, domain.ErrBadRequest.WithDetails("body too large"))
		return
	}

	var req WebhookRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		WriteError(c, domain.ErrBadRequest.WithDetails("invalid request body"))
		return
	}

	rec, session, err := h.privacy.IngestWebhook(c.Request.Context(), &service.WebhookEvent{
		SessionID:   req.SessionID,
		Source:      req.Source,
		Status:      domain.SessionStatus(strings.ToLower(req.Status)),
		TxSignature: req.TxSignature,
		Payload:     json.RawMessage(raw),
	})
	if err != nil {
		WriteError(c, err)
		return
	}

	resp := WebhookResponse{Success: true, EventID: rec.EventID}
	if session != nil {
		view := newSessionView(session)
		resp.Session = &view
	}
	c.JSON(http.StatusOK, resp)
}

// LastWebhook handles GET /api/privacy/sessions/:id/webhook.
func (h *Handler) LastWebhook(c *gin.Context) {
	rec, err := h.privacy.LastWebhook(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, WebhookRecordResponse{Success: true, Webhook: rec})
}
