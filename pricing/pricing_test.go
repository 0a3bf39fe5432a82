package pricing

import (
	"testing"
	"time"

	"github.com/Govind-619/FolioForge/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeFinalPrice_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		base         string
		coupon       *models.Coupon
		wantDiscount string
		wantFinal    string
		wantReason   CouponErrorReason
	}{
		{
			name:         "no coupon",
			base:         "499",
			wantDiscount: "0",
			wantFinal:    "499",
		},
		{
			name: "percentage capped by max discount",
			base: "499",
			coupon: &models.Coupon{
				Code: "SAVE20", DiscountType: models.DiscountPercentage,
				DiscountValue: 20, MaxDiscount: ptr(15),
			},
			wantDiscount: "15",
			wantFinal:    "484",
		},
		{
			name: "minimum amount met exactly",
			base: "5",
			coupon: &models.Coupon{
				Code: "WELCOME10", DiscountType: models.DiscountPercentage,
				DiscountValue: 10, MinAmount: ptr(5),
			},
			wantDiscount: "0.5",
			wantFinal:    "4.5",
		},
		{
			name: "minimum amount not met",
			base: "3",
			coupon: &models.Coupon{
				Code: "FLAT5", DiscountType: models.DiscountFixed,
				DiscountValue: 5, MinAmount: ptr(10),
			},
			wantReason: ReasonMinimumAmountNotMet,
		},
		{
			name: "fixed discount larger than price",
			base: "3",
			coupon: &models.Coupon{
				Code: "BIG", DiscountType: models.DiscountFixed, DiscountValue: 50,
			},
			wantDiscount: "50",
			wantFinal:    "0",
		},
		{
			name: "percentage without cap",
			base: "999",
			coupon: &models.Coupon{
				Code: "HALF", DiscountType: models.DiscountPercentage, DiscountValue: 50,
			},
			wantDiscount: "499.5",
			wantFinal:    "499.5",
		},
		{
			name: "unknown discount type",
			base: "10",
			coupon: &models.Coupon{
				Code: "ODD", DiscountType: "bogo", DiscountValue: 1,
			},
			wantReason: ReasonInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ComputeFinalPrice(dec(tt.base), tt.coupon)
			if tt.wantReason != "" {
				require.Error(t, err)
				assert.True(t, IsCouponError(err, tt.wantReason), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, q.Discount.Equal(dec(tt.wantDiscount)), "discount = %s", q.Discount)
			assert.True(t, q.FinalPrice.Equal(dec(tt.wantFinal)), "final = %s", q.FinalPrice)
		})
	}
}

func TestComputeFinalPrice_NeverNegative(t *testing.T) {
	for _, base := range []string{"0", "0.01", "1", "99.99", "499", "10000"} {
		for _, pct := range []float64{0, 1, 33.3, 50, 100, 150} {
			coupon := &models.Coupon{Code: "P", DiscountType: models.DiscountPercentage, DiscountValue: pct}
			q, err := ComputeFinalPrice(dec(base), coupon)
			require.NoError(t, err)
			assert.False(t, q.FinalPrice.IsNegative(), "base=%s pct=%v", base, pct)

			want := dec(base).Sub(dec(base).Mul(decimal.NewFromFloat(pct)).Div(hundred))
			want = decimal.Max(decimal.Zero, want)
			assert.True(t, q.FinalPrice.Equal(want), "base=%s pct=%v final=%s", base, pct, q.FinalPrice)
		}
	}
}

func TestComputeFinalPrice_NoCouponIsIdentity(t *testing.T) {
	for _, base := range []string{"0", "4.5", "499", "1234.56"} {
		q, err := ComputeFinalPrice(dec(base), nil)
		require.NoError(t, err)
		assert.True(t, q.Discount.IsZero())
		assert.True(t, q.FinalPrice.Equal(dec(base)))
		assert.Empty(t, q.CouponCode)
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(48400), ToMinorUnits(dec("484")))
	assert.Equal(t, int64(450), ToMinorUnits(dec("4.5")))
	assert.Equal(t, int64(1000), ToMinorUnits(dec("9.995")))
	assert.Equal(t, int64(0), ToMinorUnits(decimal.Zero))
	assert.True(t, FromMinorUnits(48400).Equal(dec("484")))
	assert.Equal(t, "4.50", FormatAmount(dec("4.5")))
}

func TestQuote_IsFree(t *testing.T) {
	q, err := ComputeFinalPrice(dec("0"), nil)
	require.NoError(t, err)
	assert.True(t, q.IsFree())

	q, err = ComputeFinalPrice(dec("10"), &models.Coupon{Code: "ALL", DiscountType: models.DiscountPercentage, DiscountValue: 100})
	require.NoError(t, err)
	assert.True(t, q.IsFree())
	assert.Equal(t, int64(0), q.FinalMinorUnits())
}

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	active := models.Coupon{Code: "OK", IsActive: true, ValidUntil: now.Add(time.Hour)}
	assert.NoError(t, ValidateCoupon(active, now))

	expired := models.Coupon{Code: "OLD", IsActive: true, ValidUntil: now.Add(-time.Second)}
	assert.True(t, IsCouponError(ValidateCoupon(expired, now), ReasonExpired))

	inactive := models.Coupon{Code: "OFF", IsActive: false, ValidUntil: now.Add(time.Hour)}
	assert.True(t, IsCouponError(ValidateCoupon(inactive, now), ReasonInactive))
}

func TestCouponError_Message(t *testing.T) {
	err := &CouponError{Reason: ReasonExpired, Code: "X"}
	assert.Equal(t, "Coupon has expired", err.Message())
	assert.Contains(t, err.Error(), "Expired")
}
