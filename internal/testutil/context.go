package testutil

import (
	"context"

	"github.com/flexprice/coupon-service/internal/types"
)

// SetupContext returns a context carrying a request id and no actor
func SetupContext() context.Context {
	return types.SetRequestID(context.Background(), types.GenerateUUID())
}

// SuperAdmin returns an actor with the super admin permission
func SuperAdmin(userID int64) *types.Actor {
	return &types.Actor{
		UserID:      userID,
		Permissions: []types.Permission{types.PermissionSuperAdmin},
	}
}

// StoreOwner returns an actor owning shops
func StoreOwner(userID int64, shops ...int64) *types.Actor {
	return &types.Actor{
		UserID:      userID,
		Permissions: []types.Permission{types.PermissionStoreOwner},
		ShopIDs:     shops,
	}
}

// Staff returns an actor working for shops
func Staff(userID int64, shops ...int64) *types.Actor {
	return &types.Actor{
		UserID:      userID,
		Permissions: []types.Permission{types.PermissionStaff},
		ShopIDs:     shops,
	}
}

// Customer returns an authenticated actor without management permissions
func Customer(userID int64) *types.Actor {
	return &types.Actor{
		UserID:      userID,
		Permissions: []types.Permission{types.PermissionCustomer},
	}
}
