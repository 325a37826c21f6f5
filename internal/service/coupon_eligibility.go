package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/flexprice/coupon-service/internal/cache"
	"github.com/flexprice/coupon-service/internal/domain/coupon"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/shopspring/decimal"
)

// CouponEligibilityEvaluator decides whether a coupon applies to a cart and
// what it is worth. Ineligibility is a result, not an error; only storage
// failures are returned as errors. The coupon the decision was made on is
// returned with the result, nil when none was found.
type CouponEligibilityEvaluator interface {
	Evaluate(ctx context.Context, code string, language string, subtotal decimal.Decimal, now time.Time) (types.EligibilityResult, *coupon.Coupon, error)
}

type couponEligibilityEvaluator struct {
	ServiceParams
	codes *couponCodeCache
}

// NewCouponEligibilityEvaluator creates a new eligibility evaluator with its own code cache
func NewCouponEligibilityEvaluator(params ServiceParams) CouponEligibilityEvaluator {
	return newCouponEligibilityEvaluator(params, newCouponCodeCache(params))
}

func newCouponEligibilityEvaluator(params ServiceParams, codes *couponCodeCache) *couponEligibilityEvaluator {
	return &couponEligibilityEvaluator{
		ServiceParams: params,
		codes:         codes,
	}
}

// Evaluate checks, in order: existence, approval, start of the window, end of
// the window, and the minimum cart amount. The first failed check is the reason.
func (e *couponEligibilityEvaluator) Evaluate(
	ctx context.Context,
	code string,
	language string,
	subtotal decimal.Decimal,
	now time.Time,
) (types.EligibilityResult, *coupon.Coupon, error) {
	c, err := e.codes.Get(ctx, code, language)
	if err != nil {
		if ierr.IsNotFound(err) {
			return types.NewInvalidResult(0, types.EligibilityReasonNotFound), nil, nil
		}
		return types.EligibilityResult{}, nil, err
	}

	return evaluateEligibility(c, subtotal, now), c, nil
}

// evaluateEligibility applies the eligibility rules to a coupon that was found
func evaluateEligibility(c *coupon.Coupon, subtotal decimal.Decimal, now time.Time) types.EligibilityResult {
	switch {
	case !c.IsApprove:
		return types.NewInvalidResult(c.ID, types.EligibilityReasonNotApproved)
	case now.Before(c.ActiveFrom):
		return types.NewInvalidResult(c.ID, types.EligibilityReasonNotYetActive)
	case now.After(c.ExpireAt):
		return types.NewInvalidResult(c.ID, types.EligibilityReasonExpired)
	case c.IsBelowMinimum(subtotal):
		return types.NewInvalidResult(c.ID, types.EligibilityReasonBelowMinimum)
	}
	return types.NewValidResult(c.ID, c.CalculateDiscount(subtotal))
}

// couponCodeCache is a read-through cache over CouponRepo.GetByCode.
// Every entry remembers the generation it was read under and Invalidate bumps
// the generation, so a lookup that raced a committed write is never served.
type couponCodeCache struct {
	cache      cache.Cache
	repo       coupon.Repository
	generation atomic.Uint64
}

// cachedCoupon is only served by the couponCodeCache that stored it, since
// generations are not comparable across instances sharing one cache
type cachedCoupon struct {
	owner      *couponCodeCache
	generation uint64
	coupon     coupon.Coupon
}

func newCouponCodeCache(params ServiceParams) *couponCodeCache {
	return &couponCodeCache{
		cache: params.Cache,
		repo:  params.CouponRepo,
	}
}

// Get returns a copy of the live coupon with code in language
func (c *couponCodeCache) Get(ctx context.Context, code string, language string) (*coupon.Coupon, error) {
	if c.cache == nil {
		return c.repo.GetByCode(ctx, code, language)
	}

	// read before the store so a write committing during the lookup outdates the entry
	generation := c.generation.Load()
	key := cache.GenerateKey(cache.PrefixCouponCode, language, code)

	if cached, found := c.cache.Get(ctx, key); found {
		if entry, ok := cached.(cachedCoupon); ok && entry.owner == c && entry.generation == generation {
			hit := entry.coupon
			return &hit, nil
		}
	}

	fresh, err := c.repo.GetByCode(ctx, code, language)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ctx, key, cachedCoupon{owner: c, generation: generation, coupon: *fresh}, 0)
	return fresh, nil
}

// Invalidate outdates every cached lookup. Called after each committed write.
func (c *couponCodeCache) Invalidate(ctx context.Context) {
	c.generation.Add(1)
	if c.cache != nil {
		c.cache.DeleteByPrefix(ctx, cache.PrefixCouponCode)
	}
}

// normalizeCode trims the code and, when codes are case insensitive, upper-cases it
func normalizeCode(params ServiceParams, code string) string {
	code = strings.TrimSpace(code)
	if params.Config != nil && params.Config.Coupon.CaseInsensitiveCodes {
		code = strings.ToUpper(code)
	}
	return code
}

// resolveLanguage falls back to the default language when none was requested
func resolveLanguage(params ServiceParams, language string) string {
	language = strings.TrimSpace(language)
	if language == "" && params.Config != nil {
		return params.Config.Coupon.DefaultLanguage
	}
	return language
}
