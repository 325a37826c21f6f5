package types

import (
	"github.com/shopspring/decimal"
)

// EligibilityReason explains why a coupon cannot be applied
type EligibilityReason string

const (
	EligibilityReasonNotFound     EligibilityReason = "NOT_FOUND"
	EligibilityReasonNotApproved  EligibilityReason = "NOT_APPROVED"
	EligibilityReasonNotYetActive EligibilityReason = "NOT_YET_ACTIVE"
	EligibilityReasonExpired      EligibilityReason = "EXPIRED"
	EligibilityReasonBelowMinimum EligibilityReason = "BELOW_MINIMUM"
)

func (r EligibilityReason) String() string {
	return string(r)
}

// EligibilityResult is the outcome of evaluating a coupon against a cart.
// Exactly one of Valid with DiscountAmount, or !Valid with Reason, is meaningful.
type EligibilityResult struct {
	Valid          bool
	DiscountAmount decimal.Decimal
	Reason         EligibilityReason
	// CouponID is set whenever the coupon was found
	CouponID int64
}

// NewValidResult returns an eligible result carrying the discount
func NewValidResult(couponID int64, discount decimal.Decimal) EligibilityResult {
	return EligibilityResult{Valid: true, DiscountAmount: discount, CouponID: couponID}
}

// NewInvalidResult returns an ineligible result
func NewInvalidResult(couponID int64, reason EligibilityReason) EligibilityResult {
	return EligibilityResult{Valid: false, DiscountAmount: decimal.Zero, Reason: reason, CouponID: couponID}
}
