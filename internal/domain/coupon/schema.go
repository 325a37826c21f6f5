package coupon

import (
	"github.com/samber/lo"
)

// FieldScope tells whether a field belongs to one language record or to the whole group
type FieldScope string

const (
	FieldScopeTranslatable FieldScope = "translatable"
	FieldScopeShared       FieldScope = "shared"
)

// FieldSchema declares the scope of every editable coupon field, keyed by its JSON name.
// Shared fields are owned by the default-language record and copied to its translations.
var FieldSchema = map[string]FieldScope{
	"language":            FieldScopeTranslatable,
	"description":         FieldScopeTranslatable,
	"image":               FieldScopeTranslatable,
	"code":                FieldScopeShared,
	"type":                FieldScopeShared,
	"amount":              FieldScopeShared,
	"minimum_cart_amount": FieldScopeShared,
	"active_from":         FieldScopeShared,
	"expire_at":           FieldScopeShared,
	"is_approve":          FieldScopeShared,
	"shop_id":             FieldScopeShared,
	"user_id":             FieldScopeShared,
	"target":              FieldScopeShared,
}

// IsShared reports whether field is propagated across the group
func IsShared(field string) bool {
	return FieldSchema[field] == FieldScopeShared
}

// SharedFields filters fields down to the shared ones
func SharedFields(fields []string) []string {
	return lo.Filter(fields, func(f string, _ int) bool {
		return IsShared(f)
	})
}

// CopyShared overwrites the shared fields of dst with those of src
func CopyShared(dst, src *Coupon) {
	dst.Code = src.Code
	dst.Type = src.Type
	dst.Amount = src.Amount
	dst.MinimumCartAmount = src.MinimumCartAmount
	dst.ActiveFrom = src.ActiveFrom
	dst.ExpireAt = src.ExpireAt
	dst.IsApprove = src.IsApprove
	dst.ShopID = src.ShopID
	dst.UserID = src.UserID
	dst.Target = src.Target
}
