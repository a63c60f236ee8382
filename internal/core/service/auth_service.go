package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"
)

// sessionClaims is the JWT payload. RegisteredClaims.Subject holds the user id
// and RegisteredClaims.ID the session id.
type sessionClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login, logout and token resolution.
type AuthService struct {
	users       ports.UserRepository
	sessions    ports.SessionStore
	jwtSecret   string
	tokenTTL    time.Duration
	adminEmails map[string]struct{}
	validate    *validator.Validate
	log         zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	jwtSecret string,
	tokenTTL time.Duration,
	adminEmails []string,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{
		users:       users,
		sessions:    sessions,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		adminEmails: admins,
		validate:    validator.New(),
		log:         log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || in.Password == "" || email == "" {
		return nil, domain.ErrMissingField
	}
	if s.validate.Var(email, "email") != nil {
		return nil, domain.ErrInvalidEmail
	}
	if in.Balance.IsNegative() {
		return nil, domain.ErrNegativeBalance
	}
	if !domain.IsMoney(in.Balance) {
		return nil, domain.ErrBalancePrecision
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	salt, hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         s.roleFor(email),
		Balance:      in.Balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created.Public(), nil
}

// Login verifies the credentials and opens the user's single session. A user
// that is already logged in must log out first.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !verifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}

	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if err := s.sessions.Start(ctx, session); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user, session)
	if err != nil {
		if endErr := s.sessions.End(ctx, user.ID, session.ID); endErr != nil {
			s.log.Warn().Err(endErr).Str("user_id", user.ID).Msg("failed to release session after token error")
		}
		return "", nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user.Public(), nil
}

func (s *AuthService) Logout(ctx context.Context, p *domain.Principal) error {
	if p == nil {
		return domain.ErrUnauthenticated
	}
	if err := s.sessions.End(ctx, p.UserID, p.SessionID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", p.UserID).Msg("user logged out")
	return nil
}

// Authenticate accepts a token only while the session it was issued for is
// still the user's active one.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}

	session, err := s.sessions.Get(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if session.ID != claims.ID {
		return nil, domain.ErrNotLoggedIn
	}

	return &domain.Principal{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: session.ID,
	}, nil
}

func (s *AuthService) generateToken(user *domain.User, session domain.Session) (string, error) {
	claims := sessionClaims{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) roleFor(email string) string {
	if _, ok := s.adminEmails[email]; ok {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
