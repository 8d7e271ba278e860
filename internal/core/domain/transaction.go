package domain

// TransactionState is the Payme Merchant API state code.
type TransactionState int

const (
	// StateCreated: transaction registered, payment pending.
	StateCreated TransactionState = 1
	// StatePerformed: payment completed.
	StatePerformed TransactionState = 2
	// StateCancelledBefore: cancelled while still pending.
	StateCancelledBefore TransactionState = -1
	// StateCancelledAfter: cancelled after the payment was performed.
	StateCancelledAfter TransactionState = -2
)

// Transaction is one payment attempt against one order, keyed by the
// gateway-assigned id. The JSON field names mirror the Merchant API wire
// format exactly; OrderID is merchant-side bookkeeping and never leaves
// the process.
type Transaction struct {
	PaymeID     string           `json:"transaction"`
	State       TransactionState `json:"state"`
	CreateTime  int64            `json:"create_time"`  // epoch ms, gateway-supplied
	PerformTime int64            `json:"perform_time"` // 0 until performed
	CancelTime  int64            `json:"cancel_time"`  // 0 until cancelled
	Reason      *int             `json:"reason"`
	Receivers   any              `json:"receivers"` // always null, kept for wire parity
	OrderID     string           `json:"-"`
}

// IsTerminal reports whether the transaction reached a cancelled state.
// Terminal records reject PerformTransaction permanently.
func (t *Transaction) IsTerminal() bool {
	return t.State == StateCancelledBefore || t.State == StateCancelledAfter
}

// IsPending reports whether the transaction is awaiting payment.
func (t *Transaction) IsPending() bool {
	return t.State == StateCreated
}

// Clone returns an independent copy so stored records cannot be mutated
// through handed-out pointers.
func (t *Transaction) Clone() *Transaction {
	clone := *t
	if t.Reason != nil {
		r := *t.Reason
		clone.Reason = &r
	}
	return &clone
}
