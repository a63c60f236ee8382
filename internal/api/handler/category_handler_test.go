package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneytracker/money-tracker/internal/api/middleware"
	"github.com/moneytracker/money-tracker/internal/core/domain"
)

type stubCategoryService struct {
	createFn func(ctx context.Context, p *domain.Principal, typ string) (*domain.Category, error)
	renameFn func(ctx context.Context, p *domain.Principal, oldType, newType string) (*domain.Category, error)
	getFn    func(ctx context.Context, p *domain.Principal, typ string) (*domain.Category, error)
	listFn   func(ctx context.Context, p *domain.Principal) ([]*domain.Category, error)
}

func (s *stubCategoryService) Create(ctx context.Context, p *domain.Principal, typ string) (*domain.Category, error) {
	return s.createFn(ctx, p, typ)
}

func (s *stubCategoryService) Rename(ctx context.Context, p *domain.Principal, oldType, newType string) (*domain.Category, error) {
	return s.renameFn(ctx, p, oldType, newType)
}

func (s *stubCategoryService) Get(ctx context.Context, p *domain.Principal, typ string) (*domain.Category, error) {
	return s.getFn(ctx, p, typ)
}

func (s *stubCategoryService) GetByID(context.Context, *domain.Principal, string) (*domain.Category, error) {
	return nil, domain.ErrCategoryNotFound
}

func (s *stubCategoryService) List(ctx context.Context, p *domain.Principal) ([]*domain.Category, error) {
	return s.listFn(ctx, p)
}

func sampleCategory(typ string, total int64) *domain.Category {
	return &domain.Category{ID: "c1", UserID: "u1", Type: typ, Total: decimal.NewFromInt(total), CreatedAt: time.Now(), UpdatedAt: time.Now()}
}

func TestCategoryHandler_Create(t *testing.T) {
	stub := &stubCategoryService{
		createFn: func(_ context.Context, _ *domain.Principal, typ string) (*domain.Category, error) {
			return sampleCategory(typ, 0), nil
		},
	}
	h := NewCategoryHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/v1/categories", `{"type":"food"}`)
	middleware.WithPrincipal(c, testPrincipal)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp categoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Type != "food" || resp.Total != "0.00" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCategoryHandler_Create_Duplicate(t *testing.T) {
	stub := &stubCategoryService{
		createFn: func(context.Context, *domain.Principal, string) (*domain.Category, error) {
			return nil, domain.ErrCategoryExists
		},
	}
	h := NewCategoryHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/v1/categories", `{"type":"food"}`)
	middleware.WithPrincipal(c, testPrincipal)

	if err := h.Create(c); !errors.Is(err, domain.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
}

func TestCategoryHandler_Rename_UnescapesPath(t *testing.T) {
	stub := &stubCategoryService{
		renameFn: func(_ context.Context, _ *domain.Principal, oldType, newType string) (*domain.Category, error) {
			if oldType != "eating out" || newType != "restaurants" {
				t.Fatalf("unexpected rename %q -> %q", oldType, newType)
			}
			return sampleCategory(newType, 42), nil
		},
	}
	h := NewCategoryHandler(stub)

	c, rec := newJSONContext(http.MethodPut, "/v1/categories/eating%20out", `{"type":"restaurants"}`)
	c.SetParamNames("type")
	c.SetParamValues("eating%20out")
	middleware.WithPrincipal(c, testPrincipal)

	if err := h.Rename(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCategoryHandler_List(t *testing.T) {
	stub := &stubCategoryService{
		listFn: func(context.Context, *domain.Principal) ([]*domain.Category, error) {
			return []*domain.Category{sampleCategory("food", 300), sampleCategory("fun", 10)}, nil
		},
	}
	h := NewCategoryHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/v1/categories", "")
	middleware.WithPrincipal(c, testPrincipal)

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []categoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0].Total != "300.00" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
