package port

import (
	"context"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

type ProductCatalog interface {
	// GetProduct returns the display attributes of a product
	GetProduct(ctx context.Context, productID int64) (domain.Product, error)
}

type StockOracle interface {
	// GetStock returns how many units of a product are currently available
	GetStock(ctx context.Context, productID int64) (domain.StockLevel, error)
}
