// Package rpc implements the JSON-RPC 2.0 envelope the Payme Merchant API
// speaks. Protocol outcomes — success and failure alike — travel over
// HTTP 200: Payme's client treats non-200 transport errors differently
// from protocol errors.
package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"payme-merchant-gateway/pkg/merchanterr"

	"github.com/gin-gonic/gin"
)

// Request is an inbound JSON-RPC 2.0 call. Params stay raw until the
// dispatcher knows which per-method struct to decode them into.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

// Response is the outbound JSON-RPC 2.0 envelope.
type Response struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      any               `json:"id"`
	Result  any               `json:"result,omitempty"`
	Error   *merchanterr.Error `json:"error,omitempty"`
}

// OK writes a success envelope echoing the request id.
func OK(c *gin.Context, id any, result any) {
	c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: id, Result: result})
}

// Fail writes an error envelope. Non-protocol errors are converted to the
// generic internal error so the gateway always sees well-formed JSON-RPC.
func Fail(c *gin.Context, id any, err error) {
	var pe *merchanterr.Error
	if !errors.As(err, &pe) {
		pe = merchanterr.ErrInternal(err)
	}
	c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: id, Error: pe})
}
