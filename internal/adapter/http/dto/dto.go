// Package dto defines the wire structures of the Merchant API methods and
// the ops endpoints. Each JSON-RPC method gets its own typed param struct;
// the dispatcher decodes the raw params into exactly one of them.
package dto

import (
	"encoding/json"
	"fmt"
	"strconv"

	"payme-merchant-gateway/internal/core/domain"
)

// OrderRef is the order reference inside the account object. Payme echoes
// back whatever the checkout link carried, and the sandbox sends it as a
// string or as a bare number depending on the test, so both decode.
type OrderRef string

func (r *OrderRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = OrderRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("order_id must be a string or number")
	}
	*r = OrderRef(n.String())
	return nil
}

// Account is the account object of CheckPerformTransaction and
// CreateTransaction.
type Account struct {
	OrderID OrderRef `json:"order_id"`
}

// CheckPerformParams are the params of CheckPerformTransaction.
type CheckPerformParams struct {
	Amount  int64    `json:"amount"`
	Account *Account `json:"account"`
}

// CreateParams are the params of CreateTransaction.
type CreateParams struct {
	ID      string   `json:"id"`
	Time    int64    `json:"time"`
	Amount  int64    `json:"amount"`
	Account *Account `json:"account"`
}

// PerformParams are the params of PerformTransaction and CheckTransaction.
type PerformParams struct {
	ID string `json:"id"`
}

// CancelParams are the params of CancelTransaction.
type CancelParams struct {
	ID     string `json:"id"`
	Reason *int   `json:"reason"`
}

// StatementParams are the params of GetStatement, epoch-ms bounds
// inclusive.
type StatementParams struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// ChangePasswordParams are the params of ChangePassword.
type ChangePasswordParams struct {
	Password string `json:"password"`
}

// OrderRefString returns the order reference, or "" when the account
// object or its order id was missing.
func (a *Account) OrderRefString() string {
	if a == nil {
		return ""
	}
	return string(a.OrderID)
}

// --- Method results ---

// CheckPerformResult is the CheckPerformTransaction success payload.
type CheckPerformResult struct {
	Allow bool `json:"allow"`
}

// CreateResult is the CreateTransaction success payload.
type CreateResult struct {
	CreateTime  int64  `json:"create_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
}

// PerformResult is the PerformTransaction success payload.
type PerformResult struct {
	Transaction string `json:"transaction"`
	PerformTime int64  `json:"perform_time"`
	State       int    `json:"state"`
}

// CancelResult is the CancelTransaction success payload.
type CancelResult struct {
	Transaction string `json:"transaction"`
	CancelTime  int64  `json:"cancel_time"`
	State       int    `json:"state"`
}

// CheckResult is the CheckTransaction success payload. Receivers is always
// null; it is emitted for wire parity with the gateway.
type CheckResult struct {
	CreateTime  int64  `json:"create_time"`
	PerformTime int64  `json:"perform_time"`
	CancelTime  int64  `json:"cancel_time"`
	Transaction string `json:"transaction"`
	State       int    `json:"state"`
	Reason      *int   `json:"reason"`
	Receivers   any    `json:"receivers"`
}

// StatementResult is the GetStatement success payload.
type StatementResult struct {
	Transactions []StatementEntry `json:"transactions"`
}

// StatementEntry is one transaction in a GetStatement result. Account
// carries the order reference back to Payme for reconciliation.
type StatementEntry struct {
	ID          string         `json:"id"`
	Time        int64          `json:"time"`
	Account     map[string]any `json:"account"`
	CreateTime  int64          `json:"create_time"`
	PerformTime int64          `json:"perform_time"`
	CancelTime  int64          `json:"cancel_time"`
	Transaction string         `json:"transaction"`
	State       int            `json:"state"`
	Reason      *int           `json:"reason"`
	Receivers   any            `json:"receivers"`
}

// ChangePasswordResult is the ChangePassword success payload.
type ChangePasswordResult struct {
	Success bool `json:"success"`
}

// NewCheckResult shapes a stored transaction for CheckTransaction.
func NewCheckResult(tx *domain.Transaction) CheckResult {
	return CheckResult{
		CreateTime:  tx.CreateTime,
		PerformTime: tx.PerformTime,
		CancelTime:  tx.CancelTime,
		Transaction: tx.PaymeID,
		State:       int(tx.State),
		Reason:      tx.Reason,
	}
}

// NewStatementEntry shapes a stored transaction for GetStatement.
func NewStatementEntry(tx *domain.Transaction) StatementEntry {
	return StatementEntry{
		ID:          tx.PaymeID,
		Time:        tx.CreateTime,
		Account:     map[string]any{"order_id": tx.OrderID},
		CreateTime:  tx.CreateTime,
		PerformTime: tx.PerformTime,
		CancelTime:  tx.CancelTime,
		Transaction: tx.PaymeID,
		State:       int(tx.State),
		Reason:      tx.Reason,
	}
}

// --- Ops API ---

// OpsLoginRequest is the ops login body.
type OpsLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// OpsLoginResponse carries the issued bearer token.
type OpsLoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// ExchangeRateResponse is the current exchange rate.
type ExchangeRateResponse struct {
	Pair string  `json:"pair"`
	Rate float64 `json:"rate"`
}

// SetExchangeRateRequest sets a new rate.
type SetExchangeRateRequest struct {
	Rate float64 `json:"rate" binding:"required,gt=0"`
}

// PaymentLinkRequest asks for a checkout link for an order.
type PaymentLinkRequest struct {
	OrderRef    string `json:"order_ref" binding:"required"`
	CallbackURL string `json:"callback_url"`
}

// ParseStatementBounds validates ops transaction-listing query params.
func ParseStatementBounds(fromStr, toStr string) (int64, int64, error) {
	from, err := strconv.ParseInt(fromStr, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid from: %q", fromStr)
	}
	to, err := strconv.ParseInt(toStr, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid to: %q", toStr)
	}
	if to < from {
		return 0, 0, fmt.Errorf("to precedes from")
	}
	return from, to, nil
}
