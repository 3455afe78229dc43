package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetBalance handles GET /api/balance/:address?refresh=.
func (h *Handler) GetBalance(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	res, err := h.balance.Lookup(c.Request.Context(), c.Param("address"), refresh)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{
		Success: true,
		BalanceView: BalanceView{
			Address:         res.Address,
			PublicBalance:   res.PublicBalance,
			ShieldedBalance: res.ShieldedBalance,
			Timestamp:       res.Timestamp,
			Cached:          res.Cached,
		},
	})
}

// GetProof handles GET /api/proofs/:hash.
func (h *Handler) GetProof(c *gin.Context) {
	rec, err := h.proofs.Get(c.Request.Context(), c.Param("hash"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProofResponse{Success: true, Proof: rec})
}

// ProofMetadata handles GET /api/proofs/:hash/metadata.
func (h *Handler) ProofMetadata(c *gin.Context) {
	meta, err := h.proofs.Metadata(c.Request.Context(), c.Param("hash"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProofMetadataResponse{Success: true, Metadata: meta})
}

// VerifyProof handles POST /api/proofs/:hash/verify.
func (h *Handler) VerifyProof(c *gin.Context) {
	hash := c.Param("hash")
	valid, err := h.proofs.Verify(c.Request.Context(), hash)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, VerifyResponse{Success: true, ProofHash: hash, Valid: valid})
}

// VerifyProofBatch handles POST /api/proofs/verify.
func (h *Handler) VerifyProofBatch(c *gin.Context) {
	var req VerifyBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	results, err := h.proofs.VerifyBatch(c.Request.Context(), req.Hashes)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, VerifyBatchResponse{Success: true, Results: results})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(c *gin.Context) {
	counters, err := h.privacy.Stats(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Success: true, Counters: counters})
}
