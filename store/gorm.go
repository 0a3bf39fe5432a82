package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Govind-619/FolioForge/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection. The connection should be opened
// with TranslateError enabled so unique violations map to ErrDuplicate.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying connection for health checks and scripts.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the schema.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Coupon{},
		&models.PaymentRecord{},
		&models.Portfolio{},
	)
}

func gormErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	if u.Subscription.Type == "" {
		u.Subscription.Type = models.TierFree
	}
	return gormErr(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return u, gormErr(err)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error
	return u, gormErr(err)
}

func (s *GormStore) GetUserByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("google_id = ?", googleID).First(&u).Error
	return u, gormErr(err)
}

func (s *GormStore) LinkGoogleAccount(ctx context.Context, userID, googleID string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("google_id", googleID)
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormTx struct {
	tx *gorm.DB
}

func (t *gormTx) PaymentOwner(ctx context.Context, transactionID string) (string, error) {
	var owners []string
	err := t.tx.WithContext(ctx).Model(&models.PaymentRecord{}).
		Where("transaction_id = ?", transactionID).
		Limit(1).
		Pluck("user_id", &owners).Error
	if err != nil || len(owners) == 0 {
		return "", err
	}
	return owners[0], nil
}

func (t *gormTx) AppendPayment(ctx context.Context, rec *models.PaymentRecord) error {
	return gormErr(t.tx.WithContext(ctx).Create(rec).Error)
}

func (t *gormTx) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	return gormErr(t.tx.WithContext(ctx).Create(p).Error)
}

// UpdateUser takes a row lock with SELECT ... FOR UPDATE so a second
// verification for the same user waits until the first commits.
func (s *GormStore) UpdateUser(ctx context.Context, userID string, fn UpdateFunc) (models.User, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return models.User{}, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var u models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&u).Error; err != nil {
		tx.Rollback()
		return models.User{}, gormErr(err)
	}

	if err := fn(&gormTx{tx: tx}, &u); err != nil {
		tx.Rollback()
		return models.User{}, err
	}

	u.UpdatedAt = time.Now()
	if err := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"name":                    u.Name,
		"subscription_type":       u.Subscription.Type,
		"subscription_is_active":  u.Subscription.IsActive,
		"subscription_expires_at": u.Subscription.ExpiresAt,
		"tokens":                  u.Tokens,
		"updated_at":              u.UpdatedAt,
	}).Error; err != nil {
		tx.Rollback()
		return models.User{}, fmt.Errorf("update user: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return models.User{}, fmt.Errorf("commit transaction: %w", gormErr(err))
	}
	return u, nil
}

func (s *GormStore) GetCoupon(ctx context.Context, code string) (models.Coupon, error) {
	var c models.Coupon
	err := s.db.WithContext(ctx).Where("code = ?", models.NormalizeCouponCode(code)).First(&c).Error
	return c, gormErr(err)
}

func (s *GormStore) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := s.db.WithContext(ctx).Order("code ASC").Find(&coupons).Error
	return coupons, err
}

func (s *GormStore) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	c.Code = models.NormalizeCouponCode(c.Code)
	return gormErr(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	c.Code = models.NormalizeCouponCode(c.Code)
	res := s.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ?", c.Code).
		Updates(map[string]interface{}{
			"discount_type":  c.DiscountType,
			"discount_value": c.DiscountValue,
			"min_amount":     c.MinAmount,
			"max_discount":   c.MaxDiscount,
			"valid_until":    c.ValidUntil,
			"is_active":      c.IsActive,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeactivateCoupon(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("code = ?", models.NormalizeCouponCode(code)).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetPayment(ctx context.Context, id string) (models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return p, gormErr(err)
}

func (s *GormStore) ListPayments(ctx context.Context, userID string, offset, limit int) ([]models.PaymentRecord, int64, error) {
	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.PaymentRecord{})
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.PaymentRecord
	q := scoped().Order("date DESC").Order("id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *GormStore) GetPortfolio(ctx context.Context, id string) (models.Portfolio, error) {
	var p models.Portfolio
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return p, gormErr(err)
}

func (s *GormStore) GetPortfolioBySlug(ctx context.Context, slug string) (models.Portfolio, error) {
	var p models.Portfolio
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error
	return p, gormErr(err)
}

func (s *GormStore) ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error) {
	var out []models.Portfolio
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *GormStore) UpdatePortfolio(ctx context.Context, p *models.Portfolio) error {
	p.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Portfolio{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"slug":       p.Slug,
			"template":   p.Template,
			"title":      p.Title,
			"content":    p.Content,
			"published":  p.Published,
			"updated_at": p.UpdatedAt,
		})
	if res.Error != nil {
		return gormErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePortfolio(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Portfolio{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Portfolio{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
