package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups a user's expenses. Total is a denormalised aggregate kept
// equal to the sum of the amounts of the expenses that reference it.
type Category struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"`
	Total     decimal.Decimal `json:"total"`
	Version   int64           `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AdjustTotal moves the aggregate by delta.
func (c *Category) AdjustTotal(delta decimal.Decimal) {
	c.Total = c.Total.Add(delta)
}
