package port

import (
	"context"
	"errors"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

// CartRepository persists the whole cart as one value. Implementations
// are free to store it differently as long as Load returns what the last
// successful Save wrote.
type CartRepository interface {
	// LoadCart returns the stored cart; ok is false when nothing was ever saved
	LoadCart(ctx context.Context) (cart domain.Cart, ok bool, err error)

	// SaveCart replaces the stored cart
	SaveCart(ctx context.Context, cart domain.Cart) error
}

// ErrMalformedCart is returned by LoadCart when a stored value exists but
// cannot be decoded into a cart.
var ErrMalformedCart = errors.New("stored cart is malformed")
