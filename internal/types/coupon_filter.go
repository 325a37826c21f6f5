package types

import (
	"github.com/samber/lo"
)

// couponSortFields are the columns a coupon listing may be sorted by
var couponSortFields = []string{"updated_at", "created_at", "id", "code", "expire_at"}

// CouponFilter is the scope a coupon listing is restricted to.
// A nil ShopIDs slice means no shop predicate; an empty non-nil slice matches nothing.
// GlobalOnly keeps coupons that belong to no shop and is ignored when ShopIDs is set.
type CouponFilter struct {
	*QueryFilter
	ShopIDs    []int64 `json:"shop_ids,omitempty" form:"-"`
	GlobalOnly bool    `json:"global_only,omitempty" form:"-"`
	Language   string  `json:"language,omitempty" form:"language"`
	UserID     *int64  `json:"user_id,omitempty" form:"-"`
	GroupIDs   []int64 `json:"group_ids,omitempty" form:"-"`
}

// NewCouponFilter creates a new coupon filter with default options
func NewCouponFilter() *CouponFilter {
	return &CouponFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitCouponFilter creates a new coupon filter without pagination
func NewNoLimitCouponFilter() *CouponFilter {
	return &CouponFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// MatchesNothing reports whether the shop predicate excludes every coupon
func (f *CouponFilter) MatchesNothing() bool {
	return f.ShopIDs != nil && len(f.ShopIDs) == 0
}

// Validate validates the filter
func (f *CouponFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	if f.Sort != nil && !lo.Contains(couponSortFields, *f.Sort) {
		f.Sort = lo.ToPtr(FILTER_DEFAULT_SORT)
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *CouponFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *CouponFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *CouponFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter interface
func (f *CouponFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

// IsUnlimited implements BaseFilter interface
func (f *CouponFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
