// Package store persists users, coupons, payment records and portfolios.
//
// All entitlement changes go through UpdateUser, which runs the callback
// with the user row locked so that concurrent verifications for the same
// user are serialized and either fully applied or not applied at all.
package store

import (
	"context"
	"errors"

	"github.com/Govind-619/FolioForge/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// UserTx is the set of writes available while a user is locked. Nothing
// written through it is visible to others until UpdateUser commits.
type UserTx interface {
	// PaymentOwner returns the user id of the payment record stored under
	// transactionID, or "" when there is none.
	PaymentOwner(ctx context.Context, transactionID string) (string, error)
	// AppendPayment adds a payment record. A repeated transaction id
	// yields ErrDuplicate.
	AppendPayment(ctx context.Context, rec *models.PaymentRecord) error
	// CreatePortfolio stores a new portfolio. A taken slug yields
	// ErrDuplicate.
	CreatePortfolio(ctx context.Context, p *models.Portfolio) error
}

// UpdateFunc mutates u inside a transaction. Returning an error rolls back
// every write made through tx as well as the changes to u.
type UpdateFunc func(tx UserTx, u *models.User) error

// Store is implemented by the postgres, mongo and in-memory backends.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (models.User, error)
	LinkGoogleAccount(ctx context.Context, userID, googleID string) error
	// UpdateUser locks the user, runs fn and persists the user's name,
	// subscription and tokens together with everything fn wrote via tx.
	UpdateUser(ctx context.Context, userID string, fn UpdateFunc) (models.User, error)

	// GetCoupon looks a coupon up case-insensitively.
	GetCoupon(ctx context.Context, code string) (models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, c *models.Coupon) error
	UpdateCoupon(ctx context.Context, c *models.Coupon) error
	DeactivateCoupon(ctx context.Context, code string) error

	GetPayment(ctx context.Context, id string) (models.PaymentRecord, error)
	// ListPayments returns a page of payment records, newest first, and the
	// total count. An empty userID lists every user's payments.
	ListPayments(ctx context.Context, userID string, offset, limit int) ([]models.PaymentRecord, int64, error)

	GetPortfolio(ctx context.Context, id string) (models.Portfolio, error)
	GetPortfolioBySlug(ctx context.Context, slug string) (models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, p *models.Portfolio) error
	DeletePortfolio(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
	_ Store = (*MongoStore)(nil)
)
