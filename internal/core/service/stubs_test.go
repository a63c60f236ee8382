package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneytracker/money-tracker/internal/core/domain"
	"github.com/moneytracker/money-tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the stub repositories
// ---------------------------------------------------------------------------

type memState struct {
	mu         sync.Mutex
	seq        int
	users      map[string]*domain.User
	categories map[string]*domain.Category
	expenses   map[string]*domain.Expense

	// Failure injection. Each set error is returned by the matching write.
	createExpenseErr  error
	updateExpenseErr  error
	deleteExpenseErr  error
	updateCategoryErr map[string]error // keyed by category id
}

func newMemState() *memState {
	return &memState{
		users:      make(map[string]*domain.User),
		categories: make(map[string]*domain.Category),
		expenses:   make(map[string]*domain.Expense),
	}
}

func (m *memState) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s_%d", prefix, m.seq)
}

type memSnapshot struct {
	users      map[string]domain.User
	categories map[string]domain.Category
	expenses   map[string]domain.Expense
}

func (m *memState) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		users:      make(map[string]domain.User, len(m.users)),
		categories: make(map[string]domain.Category, len(m.categories)),
		expenses:   make(map[string]domain.Expense, len(m.expenses)),
	}
	for k, v := range m.users {
		s.users[k] = *v
	}
	for k, v := range m.categories {
		s.categories[k] = *v
	}
	for k, v := range m.expenses {
		s.expenses[k] = *v
	}
	return s
}

func (m *memState) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]*domain.User, len(s.users))
	for k, v := range s.users {
		v := v
		m.users[k] = &v
	}
	m.categories = make(map[string]*domain.Category, len(s.categories))
	for k, v := range s.categories {
		v := v
		m.categories[k] = &v
	}
	m.expenses = make(map[string]*domain.Expense, len(s.expenses))
	for k, v := range s.expenses {
		v := v
		m.expenses[k] = &v
	}
}

// stubTransactor rolls the whole store back when fn fails, like a real
// storage transaction would.
type stubTransactor struct{ state *memState }

func (t stubTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.state.snapshot()
	if err := fn(ctx); err != nil {
		t.state.restore(snap)
		return err
	}
	return nil
}

// inlineSerializer runs fn on the calling goroutine.
type inlineSerializer struct{}

func (inlineSerializer) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// lockSerializer serializes every call behind one mutex.
type lockSerializer struct{ mu sync.Mutex }

func (l *lockSerializer) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct{ state *memState }

func (r stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, existing := range r.state.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *u
	clone.ID = r.state.nextID("user")
	stored := clone
	r.state.users[clone.ID] = &stored
	return &clone, nil
}

func (r stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, u := range r.state.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	u, ok := r.state.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	out := make([]*domain.User, 0, len(r.state.users))
	for _, u := range r.state.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r stubUserRepo) UpdateBalance(_ context.Context, u *domain.User) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	stored, ok := r.state.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if stored.Version != u.Version {
		return domain.ErrConcurrentUpdate
	}
	stored.Balance = u.Balance
	stored.UpdatedAt = u.UpdatedAt
	stored.Version++
	u.Version = stored.Version
	return nil
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

type stubCategoryRepo struct{ state *memState }

func (r stubCategoryRepo) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, existing := range r.state.categories {
		if existing.UserID == c.UserID && existing.Type == c.Type {
			return nil, domain.ErrCategoryExists
		}
	}
	clone := *c
	clone.ID = r.state.nextID("cat")
	stored := clone
	r.state.categories[clone.ID] = &stored
	return &clone, nil
}

func (r stubCategoryRepo) FindByType(_ context.Context, userID, categoryType string) (*domain.Category, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, c := range r.state.categories {
		if c.UserID == userID && c.Type == categoryType {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (r stubCategoryRepo) FindByID(_ context.Context, userID, id string) (*domain.Category, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	c, ok := r.state.categories[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (r stubCategoryRepo) List(_ context.Context, userID string) ([]*domain.Category, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var out []*domain.Category
	for _, c := range r.state.categories {
		if c.UserID == userID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (r stubCategoryRepo) Update(_ context.Context, c *domain.Category) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if err := r.state.updateCategoryErr[c.ID]; err != nil {
		return err
	}
	stored, ok := r.state.categories[c.ID]
	if !ok || stored.UserID != c.UserID {
		return domain.ErrCategoryNotFound
	}
	if stored.Version != c.Version {
		return domain.ErrConcurrentUpdate
	}
	stored.Type = c.Type
	stored.Total = c.Total
	stored.UpdatedAt = c.UpdatedAt
	stored.Version++
	c.Version = stored.Version
	return nil
}

// ---------------------------------------------------------------------------
// Expenses
// ---------------------------------------------------------------------------

type stubExpenseRepo struct{ state *memState }

func (r stubExpenseRepo) Create(_ context.Context, e *domain.Expense) (*domain.Expense, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.createExpenseErr != nil {
		return nil, r.state.createExpenseErr
	}
	if e.IdempotencyKey != "" {
		for _, existing := range r.state.expenses {
			if existing.UserID == e.UserID && existing.IdempotencyKey == e.IdempotencyKey {
				return nil, domain.ErrConcurrentUpdate
			}
		}
	}
	clone := *e
	clone.ID = r.state.nextID("exp")
	stored := clone
	r.state.expenses[clone.ID] = &stored
	return &clone, nil
}

func (r stubExpenseRepo) FindByID(_ context.Context, userID, id string) (*domain.Expense, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	e, ok := r.state.expenses[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrExpenseNotFound
	}
	clone := *e
	return &clone, nil
}

func (r stubExpenseRepo) FindByIdempotencyKey(_ context.Context, userID, key string) (*domain.Expense, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, e := range r.state.expenses {
		if e.UserID == userID && e.IdempotencyKey == key {
			clone := *e
			return &clone, nil
		}
	}
	return nil, domain.ErrExpenseNotFound
}

func (r stubExpenseRepo) List(_ context.Context, f ports.ListExpensesFilter) ([]*domain.Expense, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var out []*domain.Expense
	for _, e := range r.state.expenses {
		if e.UserID != f.UserID {
			continue
		}
		if f.CategoryID != "" && e.CategoryID != f.CategoryID {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r stubExpenseRepo) Update(_ context.Context, e *domain.Expense) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.updateExpenseErr != nil {
		return r.state.updateExpenseErr
	}
	stored, ok := r.state.expenses[e.ID]
	if !ok || stored.UserID != e.UserID {
		return domain.ErrExpenseNotFound
	}
	*stored = *e
	return nil
}

func (r stubExpenseRepo) Delete(_ context.Context, userID, id string) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.deleteExpenseErr != nil {
		return r.state.deleteExpenseErr
	}
	e, ok := r.state.expenses[id]
	if !ok || e.UserID != userID {
		return domain.ErrExpenseNotFound
	}
	delete(r.state.expenses, id)
	return nil
}

// ---------------------------------------------------------------------------
// Sessions and idempotency keys
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Start(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.UserID]; ok {
		return domain.ErrAlreadyLoggedIn
	}
	s.sessions[session.UserID] = session
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, userID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}
	return &session, nil
}

func (s *stubSessionStore) End(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok || session.ID != sessionID {
		return domain.ErrNotLoggedIn
	}
	delete(s.sessions, userID)
	return nil
}

type stubIdempotencyStore struct {
	mu          sync.Mutex
	keys        map[string]string
	lookupErr   error
	rememberErr error
	lookups     int
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: make(map[string]string)}
}

func (s *stubIdempotencyStore) Lookup(_ context.Context, userID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookupErr != nil {
		return "", s.lookupErr
	}
	return s.keys[userID+":"+key], nil
}

func (s *stubIdempotencyStore) Remember(_ context.Context, userID, key, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rememberErr != nil {
		return s.rememberErr
	}
	s.keys[userID+":"+key] = expenseID
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// seedUser stores a user directly and returns its principal.
func seedUser(state *memState, email string, balance int64) *domain.Principal {
	state.mu.Lock()
	defer state.mu.Unlock()
	id := state.nextID("user")
	state.users[id] = &domain.User{
		ID:        id,
		Username:  email,
		Email:     email,
		Role:      domain.RoleUser,
		Balance:   decimal.NewFromInt(balance),
		CreatedAt: time.Now().UTC(),
	}
	return &domain.Principal{UserID: id, Email: email, Role: domain.RoleUser, SessionID: "sess_" + id}
}

func balanceOf(state *memState, userID string) decimal.Decimal {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.users[userID].Balance
}

func totalOf(state *memState, userID, categoryType string) decimal.Decimal {
	state.mu.Lock()
	defer state.mu.Unlock()
	for _, c := range state.categories {
		if c.UserID == userID && c.Type == categoryType {
			return c.Total
		}
	}
	return decimal.Zero
}

func expenseCount(state *memState) int {
	state.mu.Lock()
	defer state.mu.Unlock()
	return len(state.expenses)
}

// categoryID returns the id of userID's category typ, or "".
func categoryID(state *memState, userID, typ string) string {
	state.mu.Lock()
	defer state.mu.Unlock()
	for id, c := range state.categories {
		if c.UserID == userID && c.Type == typ {
			return id
		}
	}
	return ""
}

// checkLedger fails t unless the balance is non-negative and every category
// total equals the sum of its expenses.
func checkLedger(t *testing.T, state *memState, userID string) {
	t.Helper()
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.users[userID].Balance.IsNegative() {
		t.Fatalf("balance went negative: %s", state.users[userID].Balance)
	}
	sums := make(map[string]decimal.Decimal)
	for _, e := range state.expenses {
		if e.UserID == userID {
			sums[e.CategoryID] = sums[e.CategoryID].Add(e.Amount)
		}
	}
	for id, c := range state.categories {
		if c.UserID != userID {
			continue
		}
		if !c.Total.Equal(sums[id]) {
			t.Fatalf("category %q total %s, expenses sum to %s", c.Type, c.Total, sums[id])
		}
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
