package handler

import (
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/moneytracker/money-tracker/internal/core/ports"
)

const timeLayout = "2006-01-02T15:04:05Z"

type createExpenseRequest struct {
	Amount   *decimal.Decimal `json:"amount"   validate:"required" swaggertype:"string" example:"12.50"`
	Category string           `json:"category" validate:"required"`
}

type updateExpenseRequest struct {
	Amount   *decimal.Decimal `json:"amount"   validate:"required" swaggertype:"string" example:"15.00"`
	Category string           `json:"category" validate:"required"`
}

type expenseLinks struct {
	Self     string `json:"self"`
	Category string `json:"category,omitempty"`
}

type expenseResponse struct {
	ID         string       `json:"id"`
	Amount     string       `json:"amount"`
	CategoryID string       `json:"category_id"`
	Category   string       `json:"category"`
	CreatedAt  string       `json:"created_at"`
	UpdatedAt  string       `json:"updated_at"`
	Links      expenseLinks `json:"_links"`
}

func toExpenseResponse(r *ports.ExpenseResult) expenseResponse {
	links := expenseLinks{Self: "/v1/expenses/" + r.ID}
	if r.CategoryType != "" {
		links.Category = "/v1/categories/" + url.PathEscape(r.CategoryType)
	}
	return expenseResponse{
		ID:         r.ID,
		Amount:     r.Amount.StringFixed(2),
		CategoryID: r.CategoryID,
		Category:   r.CategoryType,
		CreatedAt:  r.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:  r.UpdatedAt.UTC().Format(timeLayout),
		Links:      links,
	}
}

func amountOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
