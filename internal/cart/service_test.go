package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murliorganic/backend-store/internal/common"
)

type memStore struct {
	carts map[string][]Item
}

func newMemStore() *memStore {
	return &memStore{carts: map[string][]Item{}}
}

func (m *memStore) Load(_ context.Context, userID string) (Cart, error) {
	items, ok := m.carts[userID]
	if !ok {
		return Cart{}, ErrEmpty
	}
	return Cart{UserID: userID, Items: items, UpdatedAt: time.Now()}, nil
}

func (m *memStore) Save(_ context.Context, userID string, items []Item) error {
	m.carts[userID] = items
	return nil
}

func (m *memStore) Clear(_ context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

func TestReplaceAndGet(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store}
	ctx := context.Background()

	items := []Item{
		{ProductID: "p1", Name: "Organic Ghee", UnitPrice: 22000, Quantity: 2},
	}
	require.NoError(t, svc.Replace(ctx, "user-1", items))

	c, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, items, c.Items)
}

func TestReplaceValidation(t *testing.T) {
	svc := &Service{Store: newMemStore()}
	ctx := context.Background()

	cases := []struct {
		name string
		item Item
	}{
		{name: "missing product id", item: Item{UnitPrice: 100, Quantity: 1}},
		{name: "negative price", item: Item{ProductID: "p1", UnitPrice: -1, Quantity: 1}},
		{name: "zero quantity", item: Item{ProductID: "p1", UnitPrice: 100, Quantity: 0}},
		{name: "negative quantity", item: Item{ProductID: "p1", UnitPrice: 100, Quantity: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Replace(ctx, "user-1", []Item{tc.item})
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestGetMissingCartReturnsEmpty(t *testing.T) {
	svc := &Service{Store: newMemStore()}

	c, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, "user-1", c.UserID)
}

func TestClear(t *testing.T) {
	store := newMemStore()
	svc := &Service{Store: store}
	ctx := context.Background()

	require.NoError(t, svc.Replace(ctx, "user-1", []Item{
		{ProductID: "p1", UnitPrice: 100, Quantity: 1},
	}))
	require.NoError(t, svc.Clear(ctx, "user-1"))

	_, ok := store.carts["user-1"]
	assert.False(t, ok)
}
