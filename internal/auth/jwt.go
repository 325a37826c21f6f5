package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/flexprice/coupon-service/internal/config"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/golang-jwt/jwt/v4"
)

// Claims carried by platform bearer tokens
type Claims struct {
	UserID      int64              `json:"user_id"`
	Permissions []types.Permission `json:"permissions"`
	ShopIDs     []int64            `json:"shop_ids"`
	jwt.RegisteredClaims
}

type jwtAuth struct {
	secret []byte
}

func NewJWTAuth(cfg *config.Configuration) *jwtAuth {
	return &jwtAuth{
		secret: []byte(cfg.Auth.Secret),
	}
}

func (a *jwtAuth) ValidateToken(ctx context.Context, token string) (*types.Actor, error) {
	claims := &Claims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHint(fmt.Sprintf("unexpected signing method: %v", token.Header["alg"])).
				Mark(ierr.ErrUnauthenticated)
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid or expired token").
			Mark(ierr.ErrUnauthenticated)
	}

	if !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthenticated)
	}

	if claims.UserID <= 0 {
		return nil, ierr.NewError("token missing user ID").
			WithHint("Token missing user ID").
			Mark(ierr.ErrUnauthenticated)
	}

	return &types.Actor{
		UserID:      claims.UserID,
		Permissions: claims.Permissions,
		ShopIDs:     claims.ShopIDs,
	}, nil
}

func (a *jwtAuth) GenerateToken(actor *types.Actor, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:      actor.UserID,
		Permissions: actor.Permissions,
		ShopIDs:     actor.ShopIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}
