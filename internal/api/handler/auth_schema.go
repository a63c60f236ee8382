package handler

import (
	"github.com/shopspring/decimal"

	"github.com/moneytracker/money-tracker/internal/core/domain"
)

type registerRequest struct {
	Username string          `json:"username" validate:"required"`
	Password string          `json:"password" validate:"required,min=6"`
	Email    string          `json:"email"    validate:"required,email"`
	Balance  decimal.Decimal `json:"balance"  swaggertype:"string" example:"400.00"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *userResponse `json:"user,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Balance:   u.Balance.StringFixed(2),
		CreatedAt: u.CreatedAt.UTC().Format(timeLayout),
	}
}
