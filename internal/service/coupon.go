package service

import (
	"context"
	"strconv"
	"time"

	"github.com/flexprice/coupon-service/internal/api/dto"
	"github.com/flexprice/coupon-service/internal/domain/coupon"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

// CouponService defines the interface for coupon operations
type CouponService interface {
	ListCoupons(ctx context.Context, req *dto.ListCouponsRequest) (*dto.ListCouponsResponse, error)
	// GetCoupon looks a coupon up by numeric id, or by code in language otherwise
	GetCoupon(ctx context.Context, idOrCode string, language string) (*dto.CouponResponse, error)
	CreateCoupon(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error)
	UpdateCoupon(ctx context.Context, id int64, req dto.UpdateCouponRequest) (*dto.CouponResponse, error)
	DeleteCoupon(ctx context.Context, id int64) error
	VerifyCoupon(ctx context.Context, req dto.VerifyCouponRequest) (*dto.VerifyCouponResponse, error)
	ApproveCoupon(ctx context.Context, id int64) (*dto.CouponResponse, error)
	DisapproveCoupon(ctx context.Context, id int64) (*dto.CouponResponse, error)
}

type couponService struct {
	ServiceParams
	evaluator CouponEligibilityEvaluator
	codes     *couponCodeCache
	gate      CouponApprovalGate
	now       func() time.Time
}

// NewCouponService creates a new coupon service
func NewCouponService(params ServiceParams) CouponService {
	codes := newCouponCodeCache(params)
	return &couponService{
		ServiceParams: params,
		evaluator:     newCouponEligibilityEvaluator(params, codes),
		codes:         codes,
		gate:          NewCouponApprovalGate(params.Config.Coupon.DefaultLanguage),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *couponService) ListCoupons(ctx context.Context, req *dto.ListCouponsRequest) (*dto.ListCouponsResponse, error) {
	if req == nil {
		req = &dto.ListCouponsRequest{}
	}

	language := resolveLanguage(s.ServiceParams, req.Language)
	filter := ResolveCouponScope(types.GetActor(ctx), req.ShopID, language)
	filter.QueryFilter.Merge(req.QueryFilter)

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	coupons, err := s.CouponRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.CouponRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	languages, err := s.groupLanguages(ctx, coupons)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := lo.Map(coupons, func(c *coupon.Coupon, _ int) *dto.CouponResponse {
		return dto.NewCouponResponse(c, now, languages[c.GroupID])
	})

	response := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *couponService) GetCoupon(ctx context.Context, idOrCode string, language string) (*dto.CouponResponse, error) {
	var (
		c   *coupon.Coupon
		err error
	)

	if id, parseErr := strconv.ParseInt(idOrCode, 10, 64); parseErr == nil {
		c, err = s.CouponRepo.Get(ctx, id)
	} else {
		c, err = s.CouponRepo.GetByCode(ctx, normalizeCode(s.ServiceParams, idOrCode), resolveLanguage(s.ServiceParams, language))
	}
	if err != nil {
		return nil, err
	}

	return s.toCouponResponse(ctx, c)
}

func (s *couponService) CreateCoupon(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	actor := types.GetActor(ctx)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	req.Code = normalizeCode(s.ServiceParams, req.Code)
	req.Language = resolveLanguage(s.ServiceParams, req.Language)
	if req.Code == "" {
		return nil, ierr.NewError("code is required").
			WithHint("Please provide a coupon code").
			Mark(ierr.ErrValidation)
	}

	isDefaultLanguage := req.Language == s.Config.Coupon.DefaultLanguage
	if isDefaultLanguage {
		if err := req.ValidateDefaultLanguage(); err != nil {
			return nil, err
		}
	}

	c := req.ToCoupon()

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if isDefaultLanguage {
			if err := authorizeCouponWrite(actor, c.ShopID); err != nil {
				return err
			}
			c.IsApprove = actor.IsSuperAdmin()
			c.UserID = lo.ToPtr(actor.UserID)
		} else {
			canonical, err := s.CouponRepo.GetByCode(ctx, c.Code, s.Config.Coupon.DefaultLanguage)
			if err != nil {
				if ierr.IsNotFound(err) {
					return ierr.WithError(err).
						WithHint("A coupon with this code must exist in the default language first").
						WithReportableDetails(map[string]any{
							"code":             c.Code,
							"default_language": s.Config.Coupon.DefaultLanguage,
						}).
						Mark(ierr.ErrValidation)
				}
				return err
			}
			if err := authorizeCouponWrite(actor, canonical.ShopID); err != nil {
				return err
			}
			if err := s.CouponRepo.LockGroup(ctx, canonical.GroupID); err != nil {
				return err
			}
			coupon.CopyShared(c, canonical)
			c.GroupID = canonical.GroupID
		}

		if _, err := s.CouponRepo.GetByCode(ctx, c.Code, c.Language); err == nil {
			return ierr.NewError("coupon already exists").
				WithHint(ierr.MsgCouldNotCreate).
				WithReportableDetails(map[string]any{
					"code":     c.Code,
					"language": c.Language,
				}).
				Mark(ierr.ErrAlreadyExists)
		} else if !ierr.IsNotFound(err) {
			return err
		}

		return s.CouponRepo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created coupon",
		"coupon_id", c.ID,
		"group_id", c.GroupID,
		"code", c.Code,
		"language", c.Language,
		"user_id", types.GetUserID(ctx),
	)
	s.afterWrite(ctx, types.WebhookEventCouponCreated, c)

	return s.toCouponResponse(ctx, c)
}

func (s *couponService) UpdateCoupon(ctx context.Context, id int64, req dto.UpdateCouponRequest) (*dto.CouponResponse, error) {
	actor := types.GetActor(ctx)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Code != nil {
		req.Code = lo.ToPtr(normalizeCode(s.ServiceParams, *req.Code))
	}

	var updated *coupon.Coupon
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.CouponRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorizeCouponWrite(actor, c.ShopID); err != nil {
			return err
		}
		if err := s.CouponRepo.LockGroup(ctx, c.GroupID); err != nil {
			return err
		}

		// re-read under the lock so the approval state is current
		c, err = s.CouponRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if err := s.checkEditableFields(c, req); err != nil {
			return err
		}
		if req.ShopID != nil {
			if err := authorizeCouponWrite(actor, req.ShopID); err != nil {
				return err
			}
		}

		req.Apply(c)

		if c.IsCanonical() {
			if err := dto.ValidateCoupon(c); err != nil {
				return err
			}
			s.gate.ApplyEdit(actor, c)
		}
		if req.Code != nil || req.Language != nil {
			if err := s.checkCodeAvailable(ctx, c); err != nil {
				return err
			}
		}

		if err := s.CouponRepo.Update(ctx, c); err != nil {
			return err
		}
		if c.IsCanonical() {
			if err := s.CouponRepo.UpdateGroupShared(ctx, c); err != nil {
				return err
			}
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("updated coupon",
		"coupon_id", updated.ID,
		"group_id", updated.GroupID,
		"is_approve", updated.IsApprove,
		"fields", req.ChangedFields(),
		"user_id", types.GetUserID(ctx),
	)
	s.afterWrite(ctx, types.WebhookEventCouponUpdated, updated)

	return s.toCouponResponse(ctx, updated)
}

func (s *couponService) DeleteCoupon(ctx context.Context, id int64) error {
	actor := types.GetActor(ctx)

	var deleted *coupon.Coupon
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.CouponRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorizeCouponWrite(actor, c.ShopID); err != nil {
			return err
		}
		if err := s.CouponRepo.LockGroup(ctx, c.GroupID); err != nil {
			return err
		}

		if c.IsCanonical() {
			err = s.CouponRepo.DeleteGroup(ctx, c.GroupID)
		} else {
			err = s.CouponRepo.Delete(ctx, c.ID)
		}
		if err != nil {
			return err
		}

		deleted = c
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("deleted coupon",
		"coupon_id", deleted.ID,
		"group_id", deleted.GroupID,
		"whole_group", deleted.IsCanonical(),
		"user_id", types.GetUserID(ctx),
	)
	s.afterWrite(ctx, types.WebhookEventCouponDeleted, deleted)

	return nil
}

func (s *couponService) VerifyCoupon(ctx context.Context, req dto.VerifyCouponRequest) (*dto.VerifyCouponResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	code := normalizeCode(s.ServiceParams, req.Code)
	language := resolveLanguage(s.ServiceParams, req.Language)

	start := time.Now()
	now := s.now()
	result, c, err := s.evaluator.Evaluate(ctx, code, language, *req.SubTotal, now)
	if err != nil {
		return nil, err
	}

	outcome := "valid"
	if !result.Valid {
		outcome = result.Reason.String()
	}
	s.Metrics.ObserveVerify(outcome, time.Since(start).Seconds())

	s.Logger.Debugw("verified coupon",
		"code", code,
		"language", language,
		"sub_total", req.SubTotal.String(),
		"outcome", outcome,
	)

	response := &dto.VerifyCouponResponse{
		IsValid:        result.Valid,
		DiscountAmount: result.DiscountAmount,
		Total:          *req.SubTotal,
	}
	if !result.Valid {
		response.Reason = result.Reason.String()
		return response, nil
	}

	response.Total = c.ApplyDiscount(*req.SubTotal)
	response.Coupon = dto.NewCouponResponse(c, now, nil)
	return response, nil
}

func (s *couponService) ApproveCoupon(ctx context.Context, id int64) (*dto.CouponResponse, error) {
	return s.changeApproval(ctx, id, true)
}

func (s *couponService) DisapproveCoupon(ctx context.Context, id int64) (*dto.CouponResponse, error) {
	return s.changeApproval(ctx, id, false)
}

// changeApproval moves the whole group of coupon id to the requested approval state
func (s *couponService) changeApproval(ctx context.Context, id int64, approve bool) (*dto.CouponResponse, error) {
	actor := types.GetActor(ctx)
	if !actor.IsSuperAdmin() {
		return nil, ierr.NewError("only super admins can change coupon approval").
			WithHint(ierr.MsgNotAuthorized).
			WithReportableDetails(map[string]any{"coupon_id": id}).
			Mark(ierr.ErrPermissionDenied)
	}

	var (
		target  *coupon.Coupon
		changed bool
	)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.CouponRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.CouponRepo.LockGroup(ctx, c.GroupID); err != nil {
			return err
		}

		canonical, err := s.CouponRepo.Get(ctx, c.GroupID)
		if err != nil {
			return err
		}

		if approve {
			changed, err = s.gate.Approve(actor, canonical)
		} else {
			changed, err = s.gate.Disapprove(actor, canonical)
		}
		if err != nil {
			return err
		}

		if changed {
			if err := s.CouponRepo.UpdateGroupShared(ctx, canonical); err != nil {
				return err
			}
		}

		target, err = s.CouponRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		event := types.WebhookEventCouponDisapproved
		if approve {
			event = types.WebhookEventCouponApproved
		}
		s.Logger.Infow("changed coupon approval",
			"coupon_id", target.ID,
			"group_id", target.GroupID,
			"is_approve", approve,
			"user_id", types.GetUserID(ctx),
		)
		s.afterWrite(ctx, event, target)
	}

	return s.toCouponResponse(ctx, target)
}

// checkEditableFields rejects edits of group-wide fields on a translation,
// and language changes on the default-language record
func (s *couponService) checkEditableFields(c *coupon.Coupon, req dto.UpdateCouponRequest) error {
	if c.IsCanonical() {
		if req.Language != nil && *req.Language != c.Language {
			return ierr.NewError("cannot change the language of the default-language coupon").
				WithHint("The language of the default-language coupon cannot be changed").
				WithReportableDetails(map[string]any{"coupon_id": c.ID}).
				Mark(ierr.ErrValidation)
		}
		return nil
	}

	if shared := coupon.SharedFields(req.ChangedFields()); len(shared) > 0 {
		return ierr.NewError("shared fields can only be edited on the default-language coupon").
			WithHint("Only description, image and language can be edited on a translation").
			WithReportableDetails(map[string]any{
				"coupon_id": c.ID,
				"fields":    shared,
			}).
			Mark(ierr.ErrValidation)
	}
	if req.Language != nil && *req.Language == s.Config.Coupon.DefaultLanguage {
		return ierr.NewError("translation cannot take the default language").
			WithHint("A translation cannot use the default language").
			WithReportableDetails(map[string]any{"coupon_id": c.ID}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// checkCodeAvailable fails when another coupon already holds c's code and language
func (s *couponService) checkCodeAvailable(ctx context.Context, c *coupon.Coupon) error {
	existing, err := s.CouponRepo.GetByCode(ctx, c.Code, c.Language)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID == c.ID {
		return nil
	}
	return ierr.NewError("coupon code already in use").
		WithHint("A coupon with this code already exists for this language").
		WithReportableDetails(map[string]any{
			"code":     c.Code,
			"language": c.Language,
		}).
		Mark(ierr.ErrAlreadyExists)
}

// authorizeCouponWrite allows super admins everything and store owners the
// coupons of shops they own. Everyone else is denied.
func authorizeCouponWrite(actor *types.Actor, shopID *int64) error {
	if actor.IsSuperAdmin() {
		return nil
	}
	if actor.HasPermission(types.PermissionStoreOwner) && shopID != nil && actor.OwnsShop(*shopID) {
		return nil
	}

	details := map[string]any{}
	if shopID != nil {
		details["shop_id"] = *shopID
	}
	return ierr.NewError("actor may not modify coupons of this shop").
		WithHint(ierr.MsgNotAuthorized).
		WithReportableDetails(details).
		Mark(ierr.ErrPermissionDenied)
}

func (s *couponService) toCouponResponse(ctx context.Context, c *coupon.Coupon) (*dto.CouponResponse, error) {
	members, err := s.CouponRepo.ListGroup(ctx, c.GroupID)
	if err != nil {
		return nil, err
	}
	languages := lo.Map(members, func(m *coupon.Coupon, _ int) string { return m.Language })
	if len(languages) == 0 {
		languages = nil
	}
	return dto.NewCouponResponse(c, s.now(), languages), nil
}

// groupLanguages returns the languages present in the group of each coupon, keyed by group id
func (s *couponService) groupLanguages(ctx context.Context, coupons []*coupon.Coupon) (map[int64][]string, error) {
	languages := make(map[int64][]string)
	if len(coupons) == 0 {
		return languages, nil
	}

	filter := types.NewNoLimitCouponFilter()
	filter.Sort = lo.ToPtr("id")
	filter.Order = lo.ToPtr(types.OrderAsc)
	filter.GroupIDs = lo.Uniq(lo.Map(coupons, func(c *coupon.Coupon, _ int) int64 {
		return c.GroupID
	}))

	members, err := s.CouponRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		languages[m.GroupID] = append(languages[m.GroupID], m.Language)
	}
	return languages, nil
}

// afterWrite runs once a write has committed: drops cached lookups, counts the
// mutation and publishes the lifecycle event. Publishing is best effort.
func (s *couponService) afterWrite(ctx context.Context, eventName string, c *coupon.Coupon) {
	s.codes.Invalidate(ctx)
	s.Metrics.ObserveMutation(eventName)

	if s.WebhookPublisher == nil {
		return
	}

	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(c)
	if err != nil {
		s.Logger.Errorw("failed to encode coupon event", "error", err, "coupon_id", c.ID)
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName: eventName,
		UserID:    types.GetUserID(ctx),
		RequestID: types.GetRequestID(ctx),
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish coupon event",
			"error", err,
			"event_name", eventName,
			"coupon_id", c.ID,
		)
	}
}
