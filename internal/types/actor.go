package types

import "github.com/samber/lo"

// Permission is a role grant carried in the bearer token
type Permission string

const (
	PermissionSuperAdmin Permission = "super_admin"
	PermissionStoreOwner Permission = "store_owner"
	PermissionStaff      Permission = "staff"
	PermissionCustomer   Permission = "customer"
)

// Actor is the authenticated caller of a request
type Actor struct {
	UserID      int64        `json:"user_id"`
	Permissions []Permission `json:"permissions"`
	// ShopIDs are the shops the actor owns (store owners) or works for (staff)
	ShopIDs []int64 `json:"shop_ids"`
}

// HasPermission reports whether the actor was granted p
func (a *Actor) HasPermission(p Permission) bool {
	if a == nil {
		return false
	}
	return lo.Contains(a.Permissions, p)
}

// IsSuperAdmin reports whether the actor is a platform administrator
func (a *Actor) IsSuperAdmin() bool {
	return a.HasPermission(PermissionSuperAdmin)
}

// OwnsShop reports whether shopID is one of the actor's shops
func (a *Actor) OwnsShop(shopID int64) bool {
	if a == nil {
		return false
	}
	return lo.Contains(a.ShopIDs, shopID)
}
