package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/moneytracker/money-tracker/internal/core/ports"
)

// CategoryHandler handles HTTP requests for the caller's categories.
type CategoryHandler struct {
	service ports.CategoryService
}

func NewCategoryHandler(service ports.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// Create handles POST /v1/categories.
//
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCategoryRequest  true  "Category type"
// @Success      201   {object}  categoryResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req createCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cat, err := h.service.Create(c.Request().Context(), p, req.Type)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCategoryResponse(cat))
}

// List handles GET /v1/categories.
//
// @Summary      List categories with their totals
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   categoryResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	cats, err := h.service.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	out := make([]categoryResponse, len(cats))
	for i, cat := range cats {
		out[i] = toCategoryResponse(cat)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/categories/:type.
//
// @Summary      Get a category by type
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string  true  "Category type"
// @Success      200   {object}  categoryResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/categories/{type} [get]
func (h *CategoryHandler) Get(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	cat, err := h.service.Get(c.Request().Context(), p, pathParam(c, "type"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategoryResponse(cat))
}

// Rename handles PUT /v1/categories/:type. The total is kept.
//
// @Summary      Rename a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type  path      string                 true  "Current category type"
// @Param        body  body      renameCategoryRequest  true  "New category type"
// @Success      200   {object}  categoryResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/categories/{type} [put]
func (h *CategoryHandler) Rename(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req renameCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cat, err := h.service.Rename(c.Request().Context(), p, pathParam(c, "type"), req.Type)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategoryResponse(cat))
}
