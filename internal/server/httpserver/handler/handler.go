package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/core/service"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NetworkInfoProvider describes the chain the service talks to.
type NetworkInfoProvider interface {
	NetworkInfo() domain.NetworkInfo
}

// Deps are the services the handlers call.
type Deps struct {
	Privacy *service.PrivacyService
	Balance *service.BalanceService
	Proofs  *service.ProofService
	Sweeper *service.Sweeper
	Store   Pinger
	Network NetworkInfoProvider

	// Engine is the storage engine name shown in the status summary.
	Engine string

	Logger logger.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	privacy *service.PrivacyService
	balance *service.BalanceService
	proofs  *service.ProofService
	sweeper *service.Sweeper
	store   Pinger
	network NetworkInfoProvider
	engine  string
	logger  logger.Logger
}

// New creates a Handler.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	return &Handler{
		privacy: deps.Privacy,
		balance: deps.Balance,
		proofs:  deps.Proofs,
		sweeper: deps.Sweeper,
		store:   deps.Store,
		network: deps.Network,
		engine:  deps.Engine,
		logger:  deps.Logger.With("component", "http"),
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestID returns the id the RequestID middleware put on the request.
func RequestID(c *gin.Context) string {
	return logger.RequestIDFromContext(c.Request.Context())
}

// WriteError aborts the request with an error body. Errors that are not
// domain errors are logged and reported as internal errors.
func WriteError(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.L(c.Request.Context()).Error("unhandled error", "path", c.Request.URL.Path, "error", err)
		de = domain.ErrInternalServer
	}

	status := StatusForCode(de.Code)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("request failed",
			"path", c.Request.URL.Path,
			"code", de.Code,
			"error", err)
	}

	c.Header("X-Error-Code", de.Code)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success:   false,
		Error:     errorMessage(de),
		Code:      de.Code,
		RequestID: RequestID(c),
	})
}

// StatusForCode maps a domain error code to an HTTP status. The last four
// digits of a code carry the status class: ZC-SESS-4040 is 404. Server-side
// codes map to 500, except chain failures which map to 502.
func StatusForCode(code string) int {
	if code == domain.ErrUpstreamFailure.Code {
		return http.StatusBadGateway
	}
	idx := strings.LastIndexByte(code, '-')
	if idx < 0 || len(code)-idx-1 != 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(code[idx+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	status := n / 10
	if status >= 400 && status < 500 && http.StatusText(status) != "" {
		return status
	}
	return http.StatusInternalServerError
}

func errorMessage(de *domain.DomainError) string {
	if de.Details != "" {
		return de.Message + ": " + de.Details
	}
	return de.Message
}

// bindJSON decodes the body into v, reporting malformed bodies as
// ErrBadRequest. An empty body leaves v untouched.
func bindJSON(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		WriteError(c, domain.ErrBadRequest.WithDetails("invalid request body"))
		return false
	}
	return true
}
