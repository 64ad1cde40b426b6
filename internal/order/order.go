package order

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a payment order.
type Status string

const (
	// StatusCreated is the initial state after the gateway order is opened.
	StatusCreated Status = "CREATED"
	// StatusVerified is terminal: the callback signature matched.
	StatusVerified Status = "VERIFIED"
	// StatusFailed is terminal: mismatch, gateway error, or processing failure.
	StatusFailed Status = "FAILED"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusFailed
}

// PaymentOrder records a single checkout's payment lifecycle, keyed by the
// gateway-issued order identifier.
type PaymentOrder struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    Status    `json:"status"`
	PaymentID string    `json:"paymentId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	// ErrNotFound is returned when no order exists for the id. Records for
	// abandoned orders expire, so a missing order also means "expired".
	ErrNotFound = errors.New("order: not found or expired")
	// ErrTerminal is returned when a transition targets an order already in a
	// terminal state.
	ErrTerminal = errors.New("order: already in terminal state")
)
