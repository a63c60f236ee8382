package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/moneytracker/money-tracker/internal/api/metrics"
	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"
)

// ExpenseHandler handles HTTP requests for expense operations.
type ExpenseHandler struct {
	service ports.ExpenseService
}

func NewExpenseHandler(service ports.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// Create handles POST /v1/expenses.
//
// A repeated Idempotency-Key returns the original expense with 200 instead of
// debiting the balance twice.
//
// @Summary      Record an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createExpenseRequest  true   "Expense details"
// @Success      201              {object}  expenseResponse
// @Success      200              {object}  expenseResponse
// @Failure      400              {object}  map[string]string
// @Failure      401              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Router       /v1/expenses [post]
func (h *ExpenseHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req createExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), p, ports.CreateExpenseInput{
		Amount:         amountOrZero(req.Amount),
		CategoryType:   req.Category,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		recordMutation("create", err)
		return err
	}

	if result.AlreadyExisted {
		metrics.ExpenseMutationsTotal.WithLabelValues("create", "replayed").Inc()
		return c.JSON(http.StatusOK, toExpenseResponse(result))
	}
	recordMutation("create", nil)
	return c.JSON(http.StatusCreated, toExpenseResponse(result))
}

// List handles GET /v1/expenses.
//
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Only expenses of this category type"
// @Success      200       {array}   expenseResponse
// @Failure      401       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /v1/expenses [get]
func (h *ExpenseHandler) List(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	results, err := h.service.List(c.Request().Context(), p, ports.ListExpensesInput{
		CategoryType: c.QueryParam("category"),
	})
	if err != nil {
		return err
	}
	out := make([]expenseResponse, len(results))
	for i := range results {
		out[i] = toExpenseResponse(&results[i])
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/expenses/:id.
//
// @Summary      Get an expense
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Expense id"
// @Success      200  {object}  expenseResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	result, err := h.service.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toExpenseResponse(result))
}

// Update handles PUT /v1/expenses/:id.
//
// @Summary      Change amount and category of an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Expense id"
// @Param        body  body      updateExpenseRequest  true  "New amount and category"
// @Success      200   {object}  expenseResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req updateExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Update(c.Request().Context(), p, c.Param("id"), ports.UpdateExpenseInput{
		Amount:       amountOrZero(req.Amount),
		CategoryType: req.Category,
	})
	recordMutation("update", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toExpenseResponse(result))
}

// Delete handles DELETE /v1/expenses/:id. The amount is credited back.
//
// @Summary      Delete an expense
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Expense id"
// @Success      200  {object}  expenseResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	result, err := h.service.Delete(c.Request().Context(), p, c.Param("id"))
	recordMutation("delete", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toExpenseResponse(result))
}

func recordMutation(op string, err error) {
	if errors.Is(err, domain.ErrInsufficientFunds) {
		metrics.InsufficientFundsTotal.Inc()
	}
	metrics.ExpenseMutationsTotal.WithLabelValues(op, errorKind(err)).Inc()
}

// errorKind collapses an error into a low-cardinality metric label.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}

// pathParam returns the unescaped value of a path parameter. Category types
// may contain spaces and arrive percent-encoded.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
