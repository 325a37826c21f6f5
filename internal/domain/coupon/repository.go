package coupon

import (
	"context"

	"github.com/flexprice/coupon-service/internal/types"
)

// Repository defines the interface for coupon data access.
// Misses are marked ErrNotFound, storage failures ErrDatabase.
type Repository interface {
	// Create persists c and assigns its ID. A zero GroupID makes c the head of a new group.
	Create(ctx context.Context, c *Coupon) error
	Get(ctx context.Context, id int64) (*Coupon, error)
	GetByCode(ctx context.Context, code string, language string) (*Coupon, error)
	List(ctx context.Context, filter *types.CouponFilter) ([]*Coupon, error)
	Count(ctx context.Context, filter *types.CouponFilter) (int, error)
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id int64) error

	// ListGroup returns every live record of a group, the default-language record first
	ListGroup(ctx context.Context, groupID int64) ([]*Coupon, error)
	// LockGroup takes a row lock on every record of the group until the surrounding transaction ends
	LockGroup(ctx context.Context, groupID int64) error
	// UpdateGroupShared writes the shared fields of canonical to every record of its group
	UpdateGroupShared(ctx context.Context, canonical *Coupon) error
	// DeleteGroup soft deletes every record of the group
	DeleteGroup(ctx context.Context, groupID int64) error
}
