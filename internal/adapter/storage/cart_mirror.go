package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/port"
)

// DefaultMirrorKey is the slot the cart has always been stored under.
const DefaultMirrorKey = "@RocketShoes:cart"

// CartMirror stores the whole cart as a JSON array under a single key of
// a KeyValueStore.
type CartMirror struct {
	kv  port.KeyValueStore
	key string
}

func NewCartMirror(kv port.KeyValueStore, key string) *CartMirror {
	if key == "" {
		key = DefaultMirrorKey
	}
	return &CartMirror{kv: kv, key: key}
}

func (m *CartMirror) LoadCart(ctx context.Context) (domain.Cart, bool, error) {
	data, ok, err := m.kv.Get(ctx, m.key)
	if err != nil {
		return nil, false, fmt.Errorf("read mirror: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, true, fmt.Errorf("%w: %v", port.ErrMalformedCart, err)
	}
	return cart.Clone(), true, nil
}

func (m *CartMirror) SaveCart(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart.Clone())
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := m.kv.Set(ctx, m.key, data); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}
