package dto

import (
	"time"

	"github.com/flexprice/coupon-service/internal/domain/coupon"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/flexprice/coupon-service/internal/validator"
	"github.com/shopspring/decimal"
)

var maxPercentage = decimal.NewFromInt(100)

// CreateCouponRequest represents the request to create a new coupon.
// For a translation (language other than the default) only code, language,
// description and image are read; everything else is copied from the
// default-language coupon with the same code.
type CreateCouponRequest struct {
	Code              string             `json:"code" validate:"required,max=255"`
	Language          string             `json:"language,omitempty" validate:"omitempty,max=16"`
	Description       string             `json:"description,omitempty"`
	Image             *types.CouponImage `json:"image,omitempty"`
	Type              types.CouponType   `json:"type,omitempty"`
	Amount            decimal.Decimal    `json:"amount" swaggertype:"string"`
	MinimumCartAmount decimal.Decimal    `json:"minimum_cart_amount" swaggertype:"string"`
	ActiveFrom        *time.Time         `json:"active_from,omitempty"`
	ExpireAt          *time.Time         `json:"expire_at,omitempty"`
	ShopID            *int64             `json:"shop_id,omitempty" validate:"omitempty,min=1"`
	Target            types.CouponTarget `json:"target,omitempty"`
}

// Validate checks the fields every coupon needs
func (r *CreateCouponRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ValidateDefaultLanguage checks the fields owned by the default-language coupon
func (r *CreateCouponRequest) ValidateDefaultLanguage() error {
	if r.Type == "" {
		return ierr.NewError("type is required").
			WithHint("Please provide a discount type (fixed or percentage)").
			Mark(ierr.ErrValidation)
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if r.ActiveFrom == nil || r.ExpireAt == nil {
		return ierr.NewError("active_from and expire_at are required").
			WithHint("Please provide the validity window of the coupon").
			Mark(ierr.ErrValidation)
	}
	if r.Target != "" {
		if err := r.Target.Validate(); err != nil {
			return err
		}
	}
	return validateTerms(r.Type, r.Amount, r.MinimumCartAmount, *r.ActiveFrom, *r.ExpireAt)
}

// ToCoupon builds the default-language coupon described by the request
func (r *CreateCouponRequest) ToCoupon() *coupon.Coupon {
	target := r.Target
	if target == "" {
		target = types.CouponTargetGlobalCustomer
	}

	c := &coupon.Coupon{
		Code:              r.Code,
		Language:          r.Language,
		Description:       r.Description,
		Image:             r.Image,
		Type:              r.Type,
		Amount:            r.Amount,
		MinimumCartAmount: r.MinimumCartAmount,
		ShopID:            r.ShopID,
		Target:            target,
		BaseModel:         types.GetDefaultBaseModel(),
	}
	if r.ActiveFrom != nil {
		c.ActiveFrom = r.ActiveFrom.UTC()
	}
	if r.ExpireAt != nil {
		c.ExpireAt = r.ExpireAt.UTC()
	}
	return c
}

// UpdateCouponRequest represents the request to update an existing coupon.
// Nil fields are left untouched.
type UpdateCouponRequest struct {
	Code              *string             `json:"code,omitempty" validate:"omitempty,min=1,max=255"`
	Language          *string             `json:"language,omitempty" validate:"omitempty,min=1,max=16"`
	Description       *string             `json:"description,omitempty"`
	Image             *types.CouponImage  `json:"image,omitempty"`
	Type              *types.CouponType   `json:"type,omitempty"`
	Amount            *decimal.Decimal    `json:"amount,omitempty" swaggertype:"string"`
	MinimumCartAmount *decimal.Decimal    `json:"minimum_cart_amount,omitempty" swaggertype:"string"`
	ActiveFrom        *time.Time          `json:"active_from,omitempty"`
	ExpireAt          *time.Time          `json:"expire_at,omitempty"`
	ShopID            *int64              `json:"shop_id,omitempty" validate:"omitempty,min=1"`
	Target            *types.CouponTarget `json:"target,omitempty"`
}

func (r *UpdateCouponRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Type != nil {
		if err := r.Type.Validate(); err != nil {
			return err
		}
	}
	if r.Target != nil {
		if err := r.Target.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ChangedFields lists the json names of the fields the request sets
func (r *UpdateCouponRequest) ChangedFields() []string {
	fields := make([]string, 0)
	set := func(ok bool, name string) {
		if ok {
			fields = append(fields, name)
		}
	}
	set(r.Code != nil, "code")
	set(r.Language != nil, "language")
	set(r.Description != nil, "description")
	set(r.Image != nil, "image")
	set(r.Type != nil, "type")
	set(r.Amount != nil, "amount")
	set(r.MinimumCartAmount != nil, "minimum_cart_amount")
	set(r.ActiveFrom != nil, "active_from")
	set(r.ExpireAt != nil, "expire_at")
	set(r.ShopID != nil, "shop_id")
	set(r.Target != nil, "target")
	return fields
}

// Apply copies the fields set on the request onto c
func (r *UpdateCouponRequest) Apply(c *coupon.Coupon) {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Language != nil {
		c.Language = *r.Language
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.Image != nil {
		c.Image = r.Image
	}
	if r.Type != nil {
		c.Type = *r.Type
	}
	if r.Amount != nil {
		c.Amount = *r.Amount
	}
	if r.MinimumCartAmount != nil {
		c.MinimumCartAmount = *r.MinimumCartAmount
	}
	if r.ActiveFrom != nil {
		c.ActiveFrom = r.ActiveFrom.UTC()
	}
	if r.ExpireAt != nil {
		c.ExpireAt = r.ExpireAt.UTC()
	}
	if r.ShopID != nil {
		c.ShopID = r.ShopID
	}
	if r.Target != nil {
		c.Target = *r.Target
	}
}

// ValidateCoupon checks the terms of a coupon after an update was applied to it
func ValidateCoupon(c *coupon.Coupon) error {
	if err := c.Type.Validate(); err != nil {
		return err
	}
	return validateTerms(c.Type, c.Amount, c.MinimumCartAmount, c.ActiveFrom, c.ExpireAt)
}

func validateTerms(t types.CouponType, amount, minimum decimal.Decimal, activeFrom, expireAt time.Time) error {
	if amount.IsNegative() {
		return ierr.NewError("amount must not be negative").
			WithHint("Amount must be zero or greater").
			WithReportableDetails(map[string]any{"amount": amount}).
			Mark(ierr.ErrValidation)
	}
	if t == types.CouponTypePercentage && amount.GreaterThan(maxPercentage) {
		return ierr.NewError("percentage amount exceeds 100").
			WithHint("Percentage amount must be between 0 and 100").
			WithReportableDetails(map[string]any{"amount": amount}).
			Mark(ierr.ErrValidation)
	}
	if minimum.IsNegative() {
		return ierr.NewError("minimum_cart_amount must not be negative").
			WithHint("Minimum cart amount must be zero or greater").
			WithReportableDetails(map[string]any{"minimum_cart_amount": minimum}).
			Mark(ierr.ErrValidation)
	}
	if activeFrom.After(expireAt) {
		return ierr.NewError("active_from is after expire_at").
			WithHint("Coupon must become active before it expires").
			WithReportableDetails(map[string]any{
				"active_from": activeFrom,
				"expire_at":   expireAt,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ListCouponsRequest carries the query parameters of a coupon listing
type ListCouponsRequest struct {
	types.QueryFilter
	Language string `form:"language" json:"language,omitempty"`
	ShopID   *int64 `form:"shop_id" json:"shop_id,omitempty"`
}

// CouponResponse represents a coupon as returned by the API
type CouponResponse struct {
	*coupon.Coupon
	// IsValid reports whether the coupon's validity window contains the current time
	IsValid             bool     `json:"is_valid"`
	TranslatedLanguages []string `json:"translated_languages"`
}

// NewCouponResponse wraps c, computing its validity at now
func NewCouponResponse(c *coupon.Coupon, now time.Time, languages []string) *CouponResponse {
	if languages == nil {
		languages = []string{c.Language}
	}
	return &CouponResponse{
		Coupon:              c,
		IsValid:             c.IsValidAt(now),
		TranslatedLanguages: languages,
	}
}

// ListCouponsResponse represents a paginated list of coupons
type ListCouponsResponse = types.ListResponse[*CouponResponse]

// VerifyCouponRequest checks a coupon against a cart subtotal
type VerifyCouponRequest struct {
	Code     string           `json:"code" validate:"required"`
	SubTotal *decimal.Decimal `json:"sub_total" validate:"required" swaggertype:"string"`
	Language string           `json:"language,omitempty"`
}

func (r *VerifyCouponRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.SubTotal.IsNegative() {
		return ierr.NewError("sub_total must not be negative").
			WithHint("Sub total must be zero or greater").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// VerifyCouponResponse is the outcome of a verification. Ineligible coupons are
// reported with is_valid=false and a reason, not as errors.
type VerifyCouponResponse struct {
	IsValid        bool            `json:"is_valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount" swaggertype:"string"`
	// Total is the sub total after the discount, the sub total itself when ineligible
	Total          decimal.Decimal `json:"total" swaggertype:"string"`
	Reason         string          `json:"reason,omitempty"`
	Coupon         *CouponResponse `json:"coupon,omitempty"`
}

// CouponApprovalRequest identifies the coupon to approve or disapprove
type CouponApprovalRequest struct {
	ID int64 `json:"id" validate:"required,min=1"`
}

func (r *CouponApprovalRequest) Validate() error {
	return validator.ValidateRequest(r)
}
