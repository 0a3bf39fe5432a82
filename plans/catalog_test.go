package plans

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Govind-619/FolioForge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	free, err := c.Get(PlanFree)
	require.NoError(t, err)
	assert.True(t, free.IsFree())
	assert.Equal(t, 1, free.Tokens())

	pro, err := c.Get(PlanPro)
	require.NoError(t, err)
	assert.True(t, pro.IsUnlimited())
	assert.Equal(t, models.UnlimitedTokens, pro.Tokens())
	assert.Equal(t, models.TierPro, pro.SubscriptionTier)

	ids := []string{}
	for _, p := range c.List() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{PlanFree, PlanPremium, PlanPro}, ids)
}

func TestCatalog_GetUnknown(t *testing.T) {
	_, err := DefaultCatalog().Get("enterprise")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	body := `
plans:
  - id: starter
    name: Starter
    price: 0
    token_grant: 1
    tier: free
  - id: studio
    name: Studio
    price: 1499.5
    tier: pro
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	studio, err := c.Get("studio")
	require.NoError(t, err)
	assert.True(t, studio.IsUnlimited())
	assert.Equal(t, "1499.5", studio.PriceDecimal().String())
}

func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name  string
		plans []Plan
	}{
		{"empty", nil},
		{"missing id", []Plan{{Name: "x", SubscriptionTier: models.TierFree}}},
		{"duplicate", []Plan{{ID: "a", SubscriptionTier: models.TierFree}, {ID: "a", SubscriptionTier: models.TierFree}}},
		{"negative price", []Plan{{ID: "a", Price: -1, SubscriptionTier: models.TierFree}}},
		{"bad tier", []Plan{{ID: "a", SubscriptionTier: "gold"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.plans)
			assert.Error(t, err)
		})
	}
}
