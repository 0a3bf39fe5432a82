package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Govind-619/FolioForge/models"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
// UpdateUser holds the write lock for the whole callback, which gives the
// same all-or-nothing behaviour as a database transaction.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]models.User
	coupons    map[string]models.Coupon
	payments   map[string]models.PaymentRecord
	portfolios map[string]models.Portfolio

	byEmail  map[string]string // lower(email) -> user ID
	byGoogle map[string]string // google ID -> user ID
	byTxn    map[string]string // transaction ID -> payment ID
	bySlug   map[string]string // slug -> portfolio ID

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.User),
		coupons:    make(map[string]models.Coupon),
		payments:   make(map[string]models.PaymentRecord),
		portfolios: make(map[string]models.Portfolio),
		byEmail:    make(map[string]string),
		byGoogle:   make(map[string]string),
		byTxn:      make(map[string]string),
		bySlug:     make(map[string]string),
		now:        time.Now,
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrDuplicate
	}
	if u.GoogleID != nil {
		if _, exists := s.byGoogle[*u.GoogleID]; exists {
			return ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Subscription.Type == "" {
		u.Subscription.Type = models.TierFree
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now

	s.users[u.ID] = *u
	s.byEmail[email] = u.ID
	if u.GoogleID != nil {
		s.byGoogle[*u.GoogleID] = u.ID
	}
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) GetUserByGoogleID(_ context.Context, googleID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byGoogle[googleID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) LinkGoogleAccount(_ context.Context, userID, googleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if owner, exists := s.byGoogle[googleID]; exists && owner != userID {
		return ErrDuplicate
	}
	gid := googleID
	u.GoogleID = &gid
	u.UpdatedAt = s.now()
	s.users[userID] = u
	s.byGoogle[googleID] = userID
	return nil
}

// memoryTx stages writes until UpdateUser commits them.
type memoryTx struct {
	s          *MemoryStore
	payments   []models.PaymentRecord
	portfolios []models.Portfolio
}

func (tx *memoryTx) PaymentOwner(_ context.Context, transactionID string) (string, error) {
	if id, ok := tx.s.byTxn[transactionID]; ok {
		return tx.s.payments[id].UserID, nil
	}
	for _, p := range tx.payments {
		if p.TransactionID == transactionID {
			return p.UserID, nil
		}
	}
	return "", nil
}

func (tx *memoryTx) hasPayment(transactionID string) bool {
	if _, ok := tx.s.byTxn[transactionID]; ok {
		return true
	}
	for _, p := range tx.payments {
		if p.TransactionID == transactionID {
			return true
		}
	}
	return false
}

func (tx *memoryTx) AppendPayment(ctx context.Context, rec *models.PaymentRecord) error {
	if tx.hasPayment(rec.TransactionID) {
		return ErrDuplicate
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	tx.payments = append(tx.payments, *rec)
	return nil
}

func (tx *memoryTx) CreatePortfolio(_ context.Context, p *models.Portfolio) error {
	if _, taken := tx.s.bySlug[p.Slug]; taken {
		return ErrDuplicate
	}
	for _, staged := range tx.portfolios {
		if staged.Slug == p.Slug {
			return ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := tx.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	tx.portfolios = append(tx.portfolios, *p)
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, userID string, fn UpdateFunc) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	u := current
	tx := &memoryTx{s: s}
	if err := fn(tx, &u); err != nil {
		return models.User{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	current.Name = u.Name
	current.Subscription = u.Subscription
	current.Tokens = u.Tokens
	current.UpdatedAt = s.now()
	s.users[userID] = current

	for _, p := range tx.payments {
		s.payments[p.ID] = p
		s.byTxn[p.TransactionID] = p.ID
	}
	for _, p := range tx.portfolios {
		s.portfolios[p.ID] = p
		s.bySlug[p.Slug] = p.ID
	}
	return current, nil
}

func (s *MemoryStore) GetCoupon(_ context.Context, code string) (models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.coupons[models.NormalizeCouponCode(code)]
	if !ok {
		return models.Coupon{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListCoupons(_ context.Context) ([]models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *MemoryStore) CreateCoupon(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Code = models.NormalizeCouponCode(c.Code)
	if _, exists := s.coupons[c.Code]; exists {
		return ErrDuplicate
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.coupons[c.Code] = *c
	return nil
}

func (s *MemoryStore) UpdateCoupon(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Code = models.NormalizeCouponCode(c.Code)
	existing, ok := s.coupons[c.Code]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.coupons[c.Code] = *c
	return nil
}

func (s *MemoryStore) DeactivateCoupon(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = models.NormalizeCouponCode(code)
	c, ok := s.coupons[code]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = false
	c.UpdatedAt = s.now()
	s.coupons[code] = c
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id string) (models.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return models.PaymentRecord{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListPayments(_ context.Context, userID string, offset, limit int) ([]models.PaymentRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []models.PaymentRecord
	for _, p := range s.payments {
		if userID == "" || p.UserID == userID {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date.Equal(all[j].Date) {
			return all[i].ID > all[j].ID
		}
		return all[i].Date.After(all[j].Date)
	})
	return page(all, offset, limit), int64(len(all)), nil
}

func (s *MemoryStore) GetPortfolio(_ context.Context, id string) (models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.portfolios[id]
	if !ok {
		return models.Portfolio{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) GetPortfolioBySlug(_ context.Context, slug string) (models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return models.Portfolio{}, ErrNotFound
	}
	return s.portfolios[id], nil
}

func (s *MemoryStore) ListPortfolios(_ context.Context, userID string) ([]models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Portfolio
	for _, p := range s.portfolios {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdatePortfolio(_ context.Context, p *models.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.portfolios[p.ID]
	if !ok {
		return ErrNotFound
	}
	if p.Slug != existing.Slug {
		if _, taken := s.bySlug[p.Slug]; taken {
			return ErrDuplicate
		}
		delete(s.bySlug, existing.Slug)
		s.bySlug[p.Slug] = p.ID
	}
	p.UserID = existing.UserID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.portfolios[p.ID] = *p
	return nil
}

func (s *MemoryStore) DeletePortfolio(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.portfolios, id)
	delete(s.bySlug, p.Slug)
	return nil
}

func (s *MemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bySlug[slug]
	return ok, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
