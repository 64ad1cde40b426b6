package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps payment orders in Redis as JSON records with a bounded TTL.
// The TTL doubles as the expiry window for abandoned Created orders: once a
// record lapses the order can never be verified.
type Store struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

const defaultTTL = 30 * time.Minute

// transitionScript replaces the record only while its status still matches
// the expected source state, preserving terminal-state immutability under
// concurrent callbacks.
var transitionScript = redis.NewScript(`local raw = redis.call("get", KEYS[1])
if not raw then
  return redis.error_reply("NOTFOUND")
end
local rec = cjson.decode(raw)
if rec["status"] ~= ARGV[1] then
  return redis.error_reply("CONFLICT:" .. rec["status"])
end
redis.call("set", KEYS[1], ARGV[2], "KEEPTTL")
return 1`)

// Put stores a freshly created order record.
func (s *Store) Put(ctx context.Context, po PaymentOrder) error {
	if s == nil || s.R == nil {
		return errors.New("order store not configured")
	}
	if po.OrderID == "" {
		return errors.New("order id is required")
	}
	raw, err := json.Marshal(po)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	return s.R.Set(ctx, s.key(po.OrderID), raw, s.ttl()).Err()
}

// Get fetches an order record by its gateway identifier.
func (s *Store) Get(ctx context.Context, orderID string) (PaymentOrder, error) {
	var po PaymentOrder
	if s == nil || s.R == nil {
		return po, errors.New("order store not configured")
	}
	raw, err := s.R.Get(ctx, s.key(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return po, ErrNotFound
		}
		return po, err
	}
	if err := json.Unmarshal(raw, &po); err != nil {
		return po, fmt.Errorf("decode order: %w", err)
	}
	return po, nil
}

// Transition moves an order from Created to the given terminal state,
// recording the payment id and reason. The swap is atomic: a concurrent
// transition loses and surfaces as ErrTerminal.
func (s *Store) Transition(ctx context.Context, orderID string, to Status, paymentID, reason string) (PaymentOrder, error) {
	var zero PaymentOrder
	if s == nil || s.R == nil {
		return zero, errors.New("order store not configured")
	}
	if !to.Terminal() {
		return zero, fmt.Errorf("order: invalid transition target %s", to)
	}
	po, err := s.Get(ctx, orderID)
	if err != nil {
		return zero, err
	}
	if po.Status.Terminal() {
		return po, ErrTerminal
	}
	po.Status = to
	po.PaymentID = paymentID
	po.Reason = reason
	po.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(po)
	if err != nil {
		return zero, fmt.Errorf("encode order: %w", err)
	}
	if err := transitionScript.Run(ctx, s.R, []string{s.key(orderID)}, string(StatusCreated), raw).Err(); err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "NOTFOUND"):
			return zero, ErrNotFound
		case strings.Contains(msg, "CONFLICT"):
			current, _ := s.Get(ctx, orderID)
			return current, ErrTerminal
		default:
			return zero, err
		}
	}
	return po, nil
}

func (s *Store) key(orderID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "payorder:"
	}
	return prefix + orderID
}

func (s *Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return defaultTTL
	}
	return s.TTL
}
