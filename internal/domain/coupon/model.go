package coupon

import (
	"time"

	"github.com/flexprice/coupon-service/internal/types"
	"github.com/shopspring/decimal"
)

// Coupon represents a discount coupon in one language.
// Records sharing a code across languages form a group keyed by GroupID,
// the id of the default-language record.
type Coupon struct {
	ID                int64              `json:"id" db:"id"`
	GroupID           int64              `json:"group_id" db:"group_id"`
	Code              string             `json:"code" db:"code"`
	Language          string             `json:"language" db:"language"`
	Description       string             `json:"description" db:"description"`
	Image             *types.CouponImage `json:"image" db:"image"`
	Type              types.CouponType   `json:"type" db:"type"`
	Amount            decimal.Decimal    `json:"amount" db:"amount"`
	MinimumCartAmount decimal.Decimal    `json:"minimum_cart_amount" db:"minimum_cart_amount"`
	ActiveFrom        time.Time          `json:"active_from" db:"active_from"`
	ExpireAt          time.Time          `json:"expire_at" db:"expire_at"`
	IsApprove         bool               `json:"is_approve" db:"is_approve"`
	ShopID            *int64             `json:"shop_id" db:"shop_id"`
	UserID            *int64             `json:"user_id" db:"user_id"`
	Target            types.CouponTarget `json:"target" db:"target"`
	types.BaseModel
}

// IsCanonical reports whether c is the default-language record of its group
func (c *Coupon) IsCanonical() bool {
	return c.GroupID == 0 || c.ID == c.GroupID
}

// IsValidAt reports whether now falls inside the inclusive validity window
func (c *Coupon) IsValidAt(now time.Time) bool {
	return !now.Before(c.ActiveFrom) && !now.After(c.ExpireAt)
}

// IsBelowMinimum reports whether subtotal does not reach the minimum cart amount
func (c *Coupon) IsBelowMinimum(subtotal decimal.Decimal) bool {
	return subtotal.LessThan(c.MinimumCartAmount)
}

// CalculateDiscount returns the discount for subtotal, never more than subtotal,
// rounded half-up to 2 decimal places.
func (c *Coupon) CalculateDiscount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsNegative() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.Type {
	case types.CouponTypeFixed:
		discount = c.Amount
	case types.CouponTypePercentage:
		discount = subtotal.Mul(c.Amount).Div(decimal.NewFromInt(100))
	default:
		return decimal.Zero
	}

	discount = decimal.Min(discount, subtotal)
	return discount.Round(2)
}

// ApplyDiscount returns the subtotal after the discount is taken off
func (c *Coupon) ApplyDiscount(subtotal decimal.Decimal) decimal.Decimal {
	final := subtotal.Sub(c.CalculateDiscount(subtotal))
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}
