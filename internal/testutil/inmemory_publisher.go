package testutil

import (
	"context"
	"sync"

	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/flexprice/coupon-service/internal/webhook/publisher"
	"github.com/samber/lo"
)

var _ publisher.WebhookPublisher = (*InMemoryWebhookPublisher)(nil)

// InMemoryWebhookPublisher records published events for assertions
type InMemoryWebhookPublisher struct {
	mu     sync.Mutex
	events []*types.WebhookEvent
	fail   bool
}

// NewInMemoryWebhookPublisher creates a new recording publisher
func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{}
}

func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.WebhookEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		return ierr.NewError("event bus unavailable").Mark(ierr.ErrSystem)
	}
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// SetFailing makes every publish fail until called with false
func (p *InMemoryWebhookPublisher) SetFailing(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

// Events returns the published events in order
func (p *InMemoryWebhookPublisher) Events() []*types.WebhookEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*types.WebhookEvent(nil), p.events...)
}

// EventNames returns the names of the published events in order
func (p *InMemoryWebhookPublisher) EventNames() []string {
	return lo.Map(p.Events(), func(e *types.WebhookEvent, _ int) string {
		return e.EventName
	})
}

// Reset forgets every recorded event
func (p *InMemoryWebhookPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.fail = false
}
