package payment

import "context"

// CreateOrderParams captures the information needed to open a gateway order.
// Amount is in minor currency units; the gateway never sees fractions.
type CreateOrderParams struct {
	Amount   int64
	Currency string
	Receipt  string
}

// GatewayOrder is the minimal order representation returned by the gateway.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway abstracts the upstream payment provider. CreateOrder performs
// exactly one attempt; retry policy is the caller's decision (there is none).
type Gateway interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}
