package model

import "time"

// CartLine is one committed product selection, unique by ProductKey.
type CartLine struct {
	ProductKey string    `json:"product_key"`
	Brand      string    `json:"brand"`
	Vendor     string    `json:"vendor"`
	Price      float64   `json:"committed_price"`
	Quantity   float64   `json:"committed_quantity"`
	Unit       Unit      `json:"committed_unit"`
	Rationale  string    `json:"rationale"`
	SelectedAt time.Time `json:"selected_at"`
}

// Cart owns the ordered committed selections plus derived totals. TotalPrice
// and TotalQuantity are recomputed after every mutation, never hand-kept.
type Cart struct {
	SessionID     string     `json:"session_id"`
	Lines         []CartLine `json:"lines"`
	TotalPrice    float64    `json:"total_price"`
	TotalQuantity float64    `json:"total_quantity"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUpdated   time.Time  `json:"last_updated"`
}

// NewCart creates an empty cart for a session.
func NewCart(sessionID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		SessionID:   sessionID,
		Lines:       []CartLine{},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Upsert inserts a line or, when its key already exists, overwrites that line
// in place. At most one line per product key ever exists.
func (c *Cart) Upsert(line CartLine) {
	line.SelectedAt = time.Now().UTC()
	replaced := false
	for i := range c.Lines {
		if c.Lines[i].ProductKey == line.ProductKey {
			c.Lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		c.Lines = append(c.Lines, line)
	}
	c.recalcTotals()
}

// Remove deletes the line with the given product key. It reports whether a
// line was actually removed.
func (c *Cart) Remove(productKey string) bool {
	for i := range c.Lines {
		if c.Lines[i].ProductKey == productKey {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.recalcTotals()
			return true
		}
	}
	return false
}

// Line returns a pointer to the line with the given key, or nil. Targeted
// modifications must locate lines by key, never by position.
func (c *Cart) Line(productKey string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductKey == productKey {
			return &c.Lines[i]
		}
	}
	return nil
}

// Keys returns the product keys in cart order.
func (c *Cart) Keys() []string {
	keys := make([]string, 0, len(c.Lines))
	for i := range c.Lines {
		keys = append(keys, c.Lines[i].ProductKey)
	}
	return keys
}

// Recalculate forces the derived totals to be recomputed. Mutating a line in
// place through Line must be followed by a call to this.
func (c *Cart) Recalculate() {
	c.recalcTotals()
}

func (c *Cart) recalcTotals() {
	var price, qty float64
	for i := range c.Lines {
		price += c.Lines[i].Price
		qty += c.Lines[i].Quantity
	}
	c.TotalPrice = price
	c.TotalQuantity = qty
	c.LastUpdated = time.Now().UTC()
}
