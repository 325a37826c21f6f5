package service

import (
	"github.com/flexprice/coupon-service/internal/domain/coupon"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
)

// CouponApprovalGate owns the approved/unapproved transitions of a coupon.
// Only super admins may approve or disapprove; a default-language edit by
// anyone else sends the coupon back for approval.
type CouponApprovalGate interface {
	// Approve marks c approved. Returns whether c changed.
	Approve(actor *types.Actor, c *coupon.Coupon) (bool, error)
	// Disapprove marks c unapproved. Returns whether c changed.
	Disapprove(actor *types.Actor, c *coupon.Coupon) (bool, error)
	// ApplyEdit resets approval when a non admin edits the default-language record
	ApplyEdit(actor *types.Actor, c *coupon.Coupon)
}

type couponApprovalGate struct {
	defaultLanguage string
}

// NewCouponApprovalGate creates a gate that treats defaultLanguage records as canonical
func NewCouponApprovalGate(defaultLanguage string) CouponApprovalGate {
	return &couponApprovalGate{defaultLanguage: defaultLanguage}
}

func (g *couponApprovalGate) Approve(actor *types.Actor, c *coupon.Coupon) (bool, error) {
	return g.transition(actor, c, true)
}

func (g *couponApprovalGate) Disapprove(actor *types.Actor, c *coupon.Coupon) (bool, error) {
	return g.transition(actor, c, false)
}

func (g *couponApprovalGate) ApplyEdit(actor *types.Actor, c *coupon.Coupon) {
	if actor.IsSuperAdmin() || c.Language != g.defaultLanguage {
		return
	}
	c.IsApprove = false
}

func (g *couponApprovalGate) transition(actor *types.Actor, c *coupon.Coupon, approve bool) (bool, error) {
	if !actor.IsSuperAdmin() {
		return false, ierr.NewError("only super admins can change coupon approval").
			WithHint(ierr.MsgNotAuthorized).
			WithReportableDetails(map[string]any{"coupon_id": c.ID}).
			Mark(ierr.ErrPermissionDenied)
	}
	if c.IsApprove == approve {
		return false, nil
	}
	c.IsApprove = approve
	return true, nil
}
