package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/core/service"
)

var operationTitles = map[domain.OperationType]string{
	domain.OperationShield:   "Shield",
	domain.OperationUnshield: "Unshield",
	domain.OperationTransfer: "Private transfer",
	domain.OperationMixer:    "Mixer",
	domain.OperationBridge:   "Bridge",
}

func createdMessage(op domain.OperationType) string {
	return operationTitles[op] + " transaction created. Waiting for confirmation."
}

// operationParam resolves the :type path segment.
func operationParam(c *gin.Context) (domain.OperationType, bool) {
	op, ok := domain.ParseOperationType(c.Param("type"))
	if !ok {
		WriteError(c, domain.ErrSessionNotFound.WithDetails("unknown operation "+c.Param("type")))
		return "", false
	}
	return op, true
}

// CreateOperation handles POST /api/privacy/:type.
func (h *Handler) CreateOperation(c *gin.Context) {
	op, ok := operationParam(c)
	if !ok {
		return
	}

	var req CreateOperationRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.privacy.CreateOperation(c.Request.Context(), &service.CreateOperationRequest{
		Type:         op,
		OwnerAddress: req.Owner(),
		Amount:       req.Amount,
		TokenMint:    req.TokenMint,
		Recipient:    req.Recipient,
	})
	if err != nil {
		WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateOperationResponse{
		Success:         true,
		SessionID:       res.Session.ID,
		ShieldedAddress: res.Session.ShieldedAddress,
		Amount:          res.Session.Amount,
		Proof:           res.Proof.Summary(),
		Status:          string(res.Session.Status),
		Message:         createdMessage(op),
		ExpiresIn:       res.ExpiresIn,
	})
}

// GetOperation handles GET /api/privacy/:type?sessionId=.
func (h *Handler) GetOperation(c *gin.Context) {
	op, ok := operationParam(c)
	if !ok {
		return
	}

	session, err := h.privacy.GetOperation(c.Request.Context(), op, c.Query("sessionId"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Success: true, Session: newSessionView(session)})
}

// GetSession handles GET /api/privacy/sessions/:id for any operation type.
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.privacy.GetOperation(c.Request.Context(), "", c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Success: true, Session: newSessionView(session)})
}

// ListSessions handles GET /api/privacy/sessions?ownerAddress=.
func (h *Handler) ListSessions(c *gin.Context) {
	owner := c.Query("ownerAddress")
	if owner == "" {
		owner = c.Query("walletAddress")
	}

	sessions, err := h.privacy.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		WriteError(c, err)
		return
	}

	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s))
	}
	c.JSON(http.StatusOK, SessionListResponse{Success: true, Sessions: views, Total: len(views)})
}

// UpdateStatus handles POST /api/privacy/sessions/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Status == "" {
		WriteError(c, domain.ErrMissingArgument.WithDetails("status is required"))
		return
	}

	session, err := h.privacy.UpdateStatus(c.Request.Context(), &service.UpdateStatusRequest{
		SessionID:       c.Param("id"),
		Status:          domain.SessionStatus(strings.ToLower(req.Status)),
		TxSignature:     req.TxSignature,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Success: true, Session: newSessionView(session)})
}

// SubmitTransaction handles POST /api/privacy/sessions/:id/submit.
func (h *Handler) SubmitTransaction(c *gin.Context) {
	var req SubmitRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Transaction == "" {
		WriteError(c, domain.ErrMissingArgument.WithDetails("transaction is required"))
		return
	}
	tx, err := base64.StdEncoding.DecodeString(req.Transaction)
	if err != nil {
		WriteError(c, domain.ErrInvalidArgument.WithDetails("transaction must be base64"))
		return
	}

	session, err := h.privacy.SubmitTransaction(c.Request.Context(), c.Param("id"), tx)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Success: true, Session: newSessionView(session)})
}

// SyncStatus handles POST /api/privacy/sessions/:id/sync.
func (h *Handler) SyncStatus(c *gin.Context) {
	session, tx, err := h.privacy.SyncStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{Success: true, Session: newSessionView(session), Chain: tx})
}
