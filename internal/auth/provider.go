package auth

import (
	"context"
	"time"

	"github.com/flexprice/coupon-service/internal/config"
	"github.com/flexprice/coupon-service/internal/types"
)

// Provider turns bearer tokens into actors. Tokens are issued by the platform's
// identity service; GenerateToken exists for local tooling and tests.
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*types.Actor, error)
	GenerateToken(actor *types.Actor, ttl time.Duration) (string, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewJWTAuth(cfg)
}
