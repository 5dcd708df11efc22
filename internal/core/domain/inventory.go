package domain

import "time"

// StockLevel is what the stock oracle reports for a product.
type StockLevel struct {
	ProductID int64 `json:"id"`
	Amount    int   `json:"amount"`
}

// Inventory is the stored stock row behind a StockLevel.
type Inventory struct {
	ProductID int64
	Quantity  int
	Version   int // optimistic locking
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i Inventory) StockLevel() StockLevel {
	return StockLevel{ProductID: i.ProductID, Amount: i.Quantity}
}
