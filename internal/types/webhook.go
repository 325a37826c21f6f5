package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent is a coupon lifecycle event published on the event bus
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	UserID    int64           `json:"user_id"`
	RequestID string          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// coupon event names
const (
	WebhookEventCouponCreated     = "coupon.created"
	WebhookEventCouponUpdated     = "coupon.updated"
	WebhookEventCouponDeleted     = "coupon.deleted"
	WebhookEventCouponApproved    = "coupon.approved"
	WebhookEventCouponDisapproved = "coupon.disapproved"
)
