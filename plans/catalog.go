// Package plans holds the static catalog of purchasable plans.
package plans

import (
	"errors"
	"fmt"
	"os"

	"github.com/Govind-619/FolioForge/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Plan IDs of the built-in catalog
const (
	PlanFree    = "free"
	PlanPremium = "premium"
	PlanPro     = "pro"
)

// ErrUnknownPlan is returned when a plan id is not in the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// Plan is one entry of the catalog. A nil TokenGrant means unlimited tokens.
type Plan struct {
	ID               string  `yaml:"id" json:"id"`
	Name             string  `yaml:"name" json:"name"`
	Description      string  `yaml:"description" json:"description,omitempty"`
	Price            float64 `yaml:"price" json:"price"`
	TokenGrant       *int    `yaml:"token_grant" json:"token_grant"`
	SubscriptionTier string  `yaml:"tier" json:"tier"`
}

// PriceDecimal returns the plan price in major units.
func (p Plan) PriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(p.Price)
}

// IsFree reports whether the plan costs nothing before coupons.
func (p Plan) IsFree() bool {
	return p.Price == 0
}

// IsUnlimited reports whether the plan grants unlimited tokens.
func (p Plan) IsUnlimited() bool {
	return p.TokenGrant == nil
}

// Tokens is the token balance the plan grants, with the unlimited sentinel
// substituted for a nil grant.
func (p Plan) Tokens() int {
	if p.TokenGrant == nil {
		return models.UnlimitedTokens
	}
	return *p.TokenGrant
}

// Catalog is an immutable, ordered set of plans.
type Catalog struct {
	plans map[string]Plan
	order []string
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

func intPtr(v int) *int { return &v }

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Plan{
		{ID: PlanFree, Name: "Free", Description: "One portfolio", Price: 0, TokenGrant: intPtr(1), SubscriptionTier: models.TierFree},
		{ID: PlanPremium, Name: "Premium", Description: "Five portfolios and premium templates", Price: 499, TokenGrant: intPtr(5), SubscriptionTier: models.TierPremium},
		{ID: PlanPro, Name: "Pro", Description: "Unlimited portfolios", Price: 999, TokenGrant: nil, SubscriptionTier: models.TierPro},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates plans and builds a catalog keeping their order.
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.New("catalog has no plans")
	}
	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		if p.ID == "" {
			return nil, errors.New("plan id is required")
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("plan %q: price must not be negative", p.ID)
		}
		if p.TokenGrant != nil && *p.TokenGrant < 0 {
			return nil, fmt.Errorf("plan %q: token grant must not be negative", p.ID)
		}
		if models.TierRank(p.SubscriptionTier) == 0 {
			return nil, fmt.Errorf("plan %q: unknown tier %q", p.ID, p.SubscriptionTier)
		}
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// LoadCatalog reads a YAML catalog file of the form `plans: [...]`.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	return NewCatalog(f.Plans)
}

// Get looks a plan up by id.
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p, nil
}

// List returns plans in catalog order.
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}
