package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zumicash/zumi-go/internal/core/domain"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call issues one JSON-RPC request and decodes the result into out.
func (c *Client) call(ctx context.Context, out any, method string, params ...any) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	r, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post("")
	if err != nil {
		return domain.ErrUpstreamFailure.WithCause(fmt.Errorf("%s: %w", method, err))
	}
	if r.IsError() {
		return domain.ErrUpstreamFailure.WithDetails(fmt.Sprintf("%s: http %d", method, r.StatusCode()))
	}
	if resp.Error != nil {
		return domain.ErrUpstreamFailure.WithCause(fmt.Errorf("%s: %w", method, resp.Error))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return domain.ErrUpstreamFailure.WithCause(fmt.Errorf("%s: decode result: %w", method, err))
	}
	return nil
}

type balanceResult struct {
	Value uint64 `json:"value"`
}

type signatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"`
	Err                json.RawMessage `json:"err"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

type signatureStatusesResult struct {
	Value []*signatureStatus `json:"value"`
}
