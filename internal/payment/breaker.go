package payment

import (
	"context"

	"github.com/murliorganic/backend-store/internal/resilience"
)

// BreakerGateway guards gateway order creation with a circuit breaker so a
// flapping gateway fails fast instead of tying up checkout requests. Each
// order creation is still attempted at most once. Signature verification is
// pure local computation and bypasses the breaker.
type BreakerGateway struct {
	Next    Gateway
	Breaker *resilience.Breaker
}

// CreateOrder forwards to the wrapped gateway while the breaker permits it.
func (g BreakerGateway) CreateOrder(ctx context.Context, params CreateOrderParams) (GatewayOrder, error) {
	if g.Breaker != nil && !g.Breaker.Allow() {
		return GatewayOrder{}, resilience.ErrOpenCircuit
	}
	out, err := g.Next.CreateOrder(ctx, params)
	if g.Breaker != nil {
		g.Breaker.Report(err == nil)
	}
	return out, err
}

// VerifySignature delegates to the wrapped gateway.
func (g BreakerGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return g.Next.VerifySignature(orderID, paymentID, signature)
}
