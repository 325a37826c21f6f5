package coupon

import (
	"testing"
	"time"

	"github.com/flexprice/coupon-service/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCouponIsValidAt(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	c := &Coupon{ActiveFrom: start, ExpireAt: end}

	assert.False(t, c.IsValidAt(start.Add(-time.Nanosecond)))
	assert.True(t, c.IsValidAt(start))
	assert.True(t, c.IsValidAt(start.Add(time.Hour)))
	assert.True(t, c.IsValidAt(end))
	assert.False(t, c.IsValidAt(end.Add(time.Nanosecond)))
}

func TestCouponCalculateDiscount(t *testing.T) {
	tests := []struct {
		name     string
		typ      types.CouponType
		amount   string
		subtotal string
		want     string
	}{
		{name: "fixed below subtotal", typ: types.CouponTypeFixed, amount: "10", subtotal: "100", want: "10"},
		{name: "fixed clamped to subtotal", typ: types.CouponTypeFixed, amount: "10", subtotal: "4.5", want: "4.5"},
		{name: "percentage", typ: types.CouponTypePercentage, amount: "25", subtotal: "80", want: "20"},
		{name: "percentage rounds half up", typ: types.CouponTypePercentage, amount: "15", subtotal: "0.1", want: "0.02"},
		{name: "percentage of 100", typ: types.CouponTypePercentage, amount: "100", subtotal: "59.99", want: "59.99"},
		{name: "zero subtotal", typ: types.CouponTypeFixed, amount: "10", subtotal: "0", want: "0"},
		{name: "unknown type", typ: types.CouponType("bogus"), amount: "10", subtotal: "100", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Coupon{Type: tt.typ, Amount: decimal.RequireFromString(tt.amount)}
			got := c.CalculateDiscount(decimal.RequireFromString(tt.subtotal))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCouponApplyDiscount(t *testing.T) {
	c := &Coupon{Type: types.CouponTypeFixed, Amount: decimal.NewFromInt(30)}
	assert.Equal(t, "70", c.ApplyDiscount(decimal.NewFromInt(100)).String())
	assert.Equal(t, "0", c.ApplyDiscount(decimal.NewFromInt(20)).String())
}

func TestCouponIsCanonical(t *testing.T) {
	assert.True(t, (&Coupon{}).IsCanonical())
	assert.True(t, (&Coupon{ID: 3, GroupID: 3}).IsCanonical())
	assert.False(t, (&Coupon{ID: 4, GroupID: 3}).IsCanonical())
}

func TestSharedFields(t *testing.T) {
	assert.Equal(t, []string{"code", "amount"}, SharedFields([]string{"description", "code", "image", "amount", "language"}))
	assert.Empty(t, SharedFields([]string{"description", "image", "language"}))

	for field := range FieldSchema {
		assert.Contains(t, []FieldScope{FieldScopeShared, FieldScopeTranslatable}, FieldSchema[field])
	}
}

func TestCopyShared(t *testing.T) {
	shop := int64(7)
	src := &Coupon{
		ID:          1,
		GroupID:     1,
		Code:        "SAVE10",
		Language:    "en",
		Description: "Ten off",
		Type:        types.CouponTypeFixed,
		Amount:      decimal.NewFromInt(10),
		IsApprove:   true,
		ShopID:      &shop,
		Target:      types.CouponTargetVerifiedCustomer,
	}
	dst := &Coupon{ID: 2, GroupID: 1, Language: "de", Description: "Zehn weniger"}

	CopyShared(dst, src)

	assert.Equal(t, int64(2), dst.ID)
	assert.Equal(t, "de", dst.Language)
	assert.Equal(t, "Zehn weniger", dst.Description)
	assert.Equal(t, "SAVE10", dst.Code)
	assert.True(t, dst.Amount.Equal(src.Amount))
	assert.True(t, dst.IsApprove)
	assert.Equal(t, &shop, dst.ShopID)
	assert.Equal(t, types.CouponTargetVerifiedCustomer, dst.Target)
}
