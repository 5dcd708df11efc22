package domain

// Product holds the display attributes returned by the catalog.
type Product struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// CartLine is a snapshot of a product taken when it was first added,
// plus the requested amount. The snapshot is never refreshed.
type CartLine struct {
	Product
	Amount int `json:"amount"`
}

// Cart is an ordered list of lines, at most one per product id.
type Cart []CartLine

// Index returns the position of the line for productID, or -1.
func (c Cart) Index(productID int64) int {
	for i, line := range c {
		if line.ID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID and whether it exists.
func (c Cart) Line(productID int64) (CartLine, bool) {
	i := c.Index(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return c[i], true
}

// Clone returns a copy that never aliases c. An empty cart clones to a
// non-nil empty slice so it serializes as [] rather than null.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Append returns a copy of c with line added at the end.
func (c Cart) Append(line CartLine) Cart {
	out := make(Cart, 0, len(c)+1)
	out = append(out, c...)
	return append(out, line)
}

// WithAmount returns a copy of c where the line at i has the given amount.
func (c Cart) WithAmount(i, amount int) Cart {
	out := c.Clone()
	out[i].Amount = amount
	return out
}

// Without returns a copy of c with the line at i removed.
func (c Cart) Without(i int) Cart {
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...)
}

// TotalAmount is the sum of all line amounts.
func (c Cart) TotalAmount() int {
	total := 0
	for _, line := range c {
		total += line.Amount
	}
	return total
}
