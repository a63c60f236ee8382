package handler

import (
	"net/url"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

type createCategoryRequest struct {
	Type string `json:"type" validate:"required"`
}

type renameCategoryRequest struct {
	Type string `json:"type" validate:"required"`
}

type categoryLinks struct {
	Self     string `json:"self"`
	Expenses string `json:"expenses"`
}

type categoryResponse struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Total     string        `json:"total"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Links     categoryLinks `json:"_links"`
}

func toCategoryResponse(c *domain.Category) categoryResponse {
	escaped := url.PathEscape(c.Type)
	return categoryResponse{
		ID:        c.ID,
		Type:      c.Type,
		Total:     c.Total.StringFixed(2),
		CreatedAt: c.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt: c.UpdatedAt.UTC().Format(timeLayout),
		Links: categoryLinks{
			Self:     "/v1/categories/" + escaped,
			Expenses: "/v1/expenses?category=" + url.QueryEscape(c.Type),
		},
	}
}
