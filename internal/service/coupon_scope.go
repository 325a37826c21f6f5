package service

import (
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/samber/lo"
)

// ResolveCouponScope maps the caller and the requested shop and language to the
// filter a coupon listing is restricted to. Rules are checked in order and the
// first matching role wins:
//
//  1. super admin: every shop, requested language
//  2. store owner: the requested shop when they own it, otherwise their own
//     coupons across the shops they own
//  3. staff: the requested shop, never one they do not work for, and
//     coupons without a shop when no shop is requested
//  4. any other authenticated user: every shop, requested language
//  5. anonymous: the requested shop if any, requested language
//
// An empty language adds no language predicate.
func ResolveCouponScope(actor *types.Actor, shopID *int64, language string) *types.CouponFilter {
	filter := types.NewCouponFilter()
	filter.Language = language

	switch {
	case actor == nil:
		if shopID != nil {
			filter.ShopIDs = []int64{*shopID}
		}

	case actor.IsSuperAdmin():
		// language only

	case actor.HasPermission(types.PermissionStoreOwner):
		if shopID != nil && actor.OwnsShop(*shopID) {
			filter.ShopIDs = []int64{*shopID}
			break
		}
		filter.ShopIDs = append(make([]int64, 0, len(actor.ShopIDs)), actor.ShopIDs...)
		filter.UserID = lo.ToPtr(actor.UserID)

	case actor.HasPermission(types.PermissionStaff):
		if shopID == nil {
			filter.GlobalOnly = true
			break
		}
		// a shop they do not work for matches nothing
		filter.ShopIDs = []int64{}
		if len(actor.ShopIDs) == 0 || actor.OwnsShop(*shopID) {
			filter.ShopIDs = []int64{*shopID}
		}
	}

	return filter
}
