package types

import (
	"database/sql/driver"
	"encoding/json"

	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/samber/lo"
)

// CouponType represents the type of coupon discount (fixed or percentage)
type CouponType string

const (
	// CouponTypeFixed represents a fixed amount coupon discount
	CouponTypeFixed CouponType = "fixed"
	// CouponTypePercentage represents a percentage-based coupon discount
	CouponTypePercentage CouponType = "percentage"
)

func (t CouponType) Validate() error {
	allowed := []CouponType{CouponTypeFixed, CouponTypePercentage}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid coupon type").
			WithHint("Coupon type must be fixed or percentage").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CouponTarget is the audience a coupon is issued for
type CouponTarget string

const (
	CouponTargetGlobalCustomer   CouponTarget = "global_customer"
	CouponTargetVerifiedCustomer CouponTarget = "verified_customer"
)

func (t CouponTarget) Validate() error {
	allowed := []CouponTarget{CouponTargetGlobalCustomer, CouponTargetVerifiedCustomer}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid coupon target").
			WithHint("Coupon target must be global_customer or verified_customer").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"target":  t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CouponImage is the attachment shown alongside a coupon
type CouponImage struct {
	ID        string `json:"id,omitempty"`
	Original  string `json:"original,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Scan implements sql.Scanner for the jsonb image column
func (i *CouponImage) Scan(value interface{}) error {
	if value == nil {
		*i = CouponImage{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return ierr.NewErrorf("unsupported image column type %T", value).
			Mark(ierr.ErrDatabase)
	}
	return json.Unmarshal(data, i)
}

// Value implements driver.Valuer for the jsonb image column
func (i CouponImage) Value() (driver.Value, error) {
	return json.Marshal(i)
}
