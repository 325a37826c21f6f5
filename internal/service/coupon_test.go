package service

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/coupon-service/internal/api/dto"
	"github.com/flexprice/coupon-service/internal/domain/coupon"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/testutil"
	"github.com/flexprice/coupon-service/internal/types"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CouponServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    CouponService
	couponRepo *testutil.InMemoryCouponStore
	testData   struct {
		save10   *coupon.Coupon
		save10DE *coupon.Coupon
		half     *coupon.Coupon
	}
}

func TestCouponService(t *testing.T) {
	suite.Run(t, new(CouponServiceSuite))
}

func (s *CouponServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *CouponServiceSuite) setupService() {
	s.couponRepo = s.GetStores().CouponRepo

	svc := NewCouponService(NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		s.couponRepo,
		s.GetWebhookPublisher(),
		s.GetMetrics(),
	))
	svc.(*couponService).now = s.GetNow
	s.service = svc
}

func (s *CouponServiceSuite) newCoupon(code string, language string) *coupon.Coupon {
	now := s.GetNow()
	return &coupon.Coupon{
		Code:              code,
		Language:          language,
		Type:              types.CouponTypeFixed,
		Amount:            decimal.NewFromInt(10),
		MinimumCartAmount: decimal.Zero,
		ActiveFrom:        now.Add(-time.Hour),
		ExpireAt:          now.Add(24 * time.Hour),
		Target:            types.CouponTargetGlobalCustomer,
		BaseModel:         types.GetDefaultBaseModel(),
	}
}

func (s *CouponServiceSuite) setupTestData() {
	s.BaseServiceTestSuite.ClearStores()
	ctx := s.GetContext()

	s.testData.save10 = s.newCoupon("SAVE10", "en")
	s.testData.save10.Description = "Ten off"
	s.testData.save10.MinimumCartAmount = decimal.NewFromInt(20)
	s.testData.save10.IsApprove = true
	s.testData.save10.ShopID = lo.ToPtr(int64(1))
	s.testData.save10.UserID = lo.ToPtr(int64(100))
	s.NoError(s.couponRepo.Create(ctx, s.testData.save10))

	s.testData.save10DE = s.newCoupon("SAVE10", "de")
	coupon.CopyShared(s.testData.save10DE, s.testData.save10)
	s.testData.save10DE.GroupID = s.testData.save10.GroupID
	s.testData.save10DE.Description = "Zehn weniger"
	s.NoError(s.couponRepo.Create(ctx, s.testData.save10DE))

	s.testData.half = s.newCoupon("HALF", "en")
	s.testData.half.Type = types.CouponTypePercentage
	s.testData.half.Amount = decimal.NewFromInt(50)
	s.testData.half.ShopID = lo.ToPtr(int64(2))
	s.testData.half.UserID = lo.ToPtr(int64(200))
	s.NoError(s.couponRepo.Create(ctx, s.testData.half))
}

func (s *CouponServiceSuite) TestCreateCoupon() {
	now := s.GetNow()
	validReq := func(code string, shopID int64) dto.CreateCouponRequest {
		return dto.CreateCouponRequest{
			Code:              code,
			Description:       "Spring sale",
			Type:              types.CouponTypePercentage,
			Amount:            decimal.NewFromInt(15),
			MinimumCartAmount: decimal.NewFromInt(30),
			ActiveFrom:        lo.ToPtr(now),
			ExpireAt:          lo.ToPtr(now.Add(7 * 24 * time.Hour)),
			ShopID:            lo.ToPtr(shopID),
		}
	}

	tests := []struct {
		name         string
		actor        *types.Actor
		req          dto.CreateCouponRequest
		wantErr      error
		wantApproved bool
	}{
		{
			name:         "super admin creates an approved coupon",
			actor:        testutil.SuperAdmin(1),
			req:          validReq("spring15", 1),
			wantApproved: true,
		},
		{
			name:  "store owner creates an unapproved coupon for their shop",
			actor: testutil.StoreOwner(100, 1),
			req:   validReq("SPRING15", 1),
		},
		{
			name:    "store owner cannot create for a shop they do not own",
			actor:   testutil.StoreOwner(100, 1),
			req:     validReq("SPRING15", 2),
			wantErr: ierr.ErrPermissionDenied,
		},
		{
			name:    "staff cannot create",
			actor:   testutil.Staff(300, 1),
			req:     validReq("SPRING15", 1),
			wantErr: ierr.ErrPermissionDenied,
		},
		{
			name:    "anonymous cannot create",
			req:     validReq("SPRING15", 1),
			wantErr: ierr.ErrPermissionDenied,
		},
		{
			name:  "missing type",
			actor: testutil.SuperAdmin(1),
			req: func() dto.CreateCouponRequest {
				r := validReq("SPRING15", 1)
				r.Type = ""
				return r
			}(),
			wantErr: ierr.ErrValidation,
		},
		{
			name:  "window ends before it starts",
			actor: testutil.SuperAdmin(1),
			req: func() dto.CreateCouponRequest {
				r := validReq("SPRING15", 1)
				r.ExpireAt = lo.ToPtr(now.Add(-time.Hour))
				return r
			}(),
			wantErr: ierr.ErrValidation,
		},
		{
			name:  "percentage above 100",
			actor: testutil.SuperAdmin(1),
			req: func() dto.CreateCouponRequest {
				r := validReq("SPRING15", 1)
				r.Amount = decimal.NewFromInt(101)
				return r
			}(),
			wantErr: ierr.ErrValidation,
		},
		{
			name:  "negative amount",
			actor: testutil.SuperAdmin(1),
			req: func() dto.CreateCouponRequest {
				r := validReq("SPRING15", 1)
				r.Type = types.CouponTypeFixed
				r.Amount = decimal.NewFromInt(-5)
				return r
			}(),
			wantErr: ierr.ErrValidation,
		},
		{
			name:    "code already used in the same language",
			actor:   testutil.SuperAdmin(1),
			req:     validReq("save10", 1),
			wantErr: ierr.ErrAlreadyExists,
		},
		{
			name:    "blank code",
			actor:   testutil.SuperAdmin(1),
			req:     validReq("   ", 1),
			wantErr: ierr.ErrValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			ctx := s.GetContextAs(tt.actor)
			if tt.actor == nil {
				ctx = s.GetContext()
			}

			resp, err := s.service.CreateCoupon(ctx, tt.req)
			if tt.wantErr != nil {
				s.Error(err)
				s.True(errors.Is(err, tt.wantErr), "got %v", err)
				return
			}

			s.NoError(err)
			s.Equal("SPRING15", resp.Code)
			s.Equal("en", resp.Language)
			s.Equal(resp.ID, resp.GroupID)
			s.Equal(tt.wantApproved, resp.IsApprove)
			s.Equal(tt.actor.UserID, lo.FromPtr(resp.UserID))
			s.Equal(types.CouponTargetGlobalCustomer, resp.Target)
			s.True(resp.IsValid)
			s.Equal([]string{"en"}, resp.TranslatedLanguages)

			// clean up so the next case can reuse the code
			s.NoError(s.couponRepo.DeleteGroup(s.GetContext(), resp.GroupID))
		})
	}
}

func (s *CouponServiceSuite) TestCreateTranslation() {
	ctx := s.GetContextAs(testutil.StoreOwner(100, 1))

	resp, err := s.service.CreateCoupon(ctx, dto.CreateCouponRequest{
		Code:        "save10",
		Language:    "fr",
		Description: "Dix de moins",
		// ignored for translations
		Amount: decimal.NewFromInt(99),
	})
	s.NoError(err)
	s.Equal(s.testData.save10.GroupID, resp.GroupID)
	s.Equal("Dix de moins", resp.Description)
	s.True(resp.Amount.Equal(decimal.NewFromInt(10)))
	s.True(resp.MinimumCartAmount.Equal(decimal.NewFromInt(20)))
	s.True(resp.IsApprove)
	s.Equal(s.testData.save10.ShopID, resp.ShopID)
	s.Equal([]string{"en", "de", "fr"}, resp.TranslatedLanguages)

	s.Run("requires a default-language coupon with the same code", func() {
		_, err := s.service.CreateCoupon(ctx, dto.CreateCouponRequest{Code: "UNKNOWN", Language: "fr"})
		s.True(ierr.IsValidation(err))
	})

	s.Run("one record per language", func() {
		_, err := s.service.CreateCoupon(ctx, dto.CreateCouponRequest{Code: "SAVE10", Language: "de"})
		s.True(ierr.IsAlreadyExists(err))
	})

	s.Run("store owner of another shop is denied", func() {
		_, err := s.service.CreateCoupon(s.GetContextAs(testutil.StoreOwner(200, 2)), dto.CreateCouponRequest{Code: "SAVE10", Language: "it"})
		s.True(ierr.IsPermissionDenied(err))
	})
}

func (s *CouponServiceSuite) TestGetCoupon() {
	tests := []struct {
		name     string
		idOrCode string
		language string
		wantID   int64
		wantErr  bool
	}{
		{
			name:     "by id",
			idOrCode: "1",
			wantID:   s.testData.save10.ID,
		},
		{
			name:     "by code in the default language",
			idOrCode: "save10",
			wantID:   s.testData.save10.ID,
		},
		{
			name:     "by code in another language",
			idOrCode: "SAVE10",
			language: "de",
			wantID:   s.testData.save10DE.ID,
		},
		{
			name:     "unknown id",
			idOrCode: "999",
			wantErr:  true,
		},
		{
			name:     "unknown language",
			idOrCode: "SAVE10",
			language: "it",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.GetCoupon(s.GetContext(), tt.idOrCode, tt.language)
			if tt.wantErr {
				s.True(ierr.IsNotFound(err), "got %v", err)
				return
			}
			s.NoError(err)
			s.Equal(tt.wantID, resp.ID)
			s.Equal([]string{"en", "de"}, resp.TranslatedLanguages)
		})
	}

	s.Run("unapproved coupons are readable", func() {
		resp, err := s.service.GetCoupon(s.GetContext(), "HALF", "")
		s.NoError(err)
		s.False(resp.IsApprove)
	})

	s.Run("deleted coupons are not found", func() {
		s.NoError(s.couponRepo.Delete(s.GetContext(), s.testData.half.ID))
		_, err := s.service.GetCoupon(s.GetContext(), "HALF", "")
		s.True(ierr.IsNotFound(err))
	})
}

func (s *CouponServiceSuite) TestListCoupons() {
	tests := []struct {
		name      string
		actor     *types.Actor
		req       *dto.ListCouponsRequest
		wantCodes []string
		wantTotal int
	}{
		{
			name:      "super admin sees every shop",
			actor:     testutil.SuperAdmin(1),
			wantCodes: []string{"HALF", "SAVE10"},
			wantTotal: 2,
		},
		{
			name:      "authenticated customer sees every shop",
			actor:     testutil.Customer(7),
			wantCodes: []string{"HALF", "SAVE10"},
			wantTotal: 2,
		},
		{
			name:      "anonymous request restricted to a shop",
			req:       &dto.ListCouponsRequest{ShopID: lo.ToPtr(int64(2))},
			wantCodes: []string{"HALF"},
			wantTotal: 1,
		},
		{
			name:      "store owner requesting a shop they own",
			actor:     testutil.StoreOwner(100, 1),
			req:       &dto.ListCouponsRequest{ShopID: lo.ToPtr(int64(1))},
			wantCodes: []string{"SAVE10"},
			wantTotal: 1,
		},
		{
			name:      "store owner requesting a foreign shop falls back to their own coupons",
			actor:     testutil.StoreOwner(100, 1),
			req:       &dto.ListCouponsRequest{ShopID: lo.ToPtr(int64(2))},
			wantCodes: []string{"SAVE10"},
			wantTotal: 1,
		},
		{
			name:      "store owner without a shop sees only coupons they created",
			actor:     testutil.StoreOwner(100, 1, 2),
			wantCodes: []string{"SAVE10"},
			wantTotal: 1,
		},
		{
			name:      "staff requesting their shop",
			actor:     testutil.Staff(300, 2),
			req:       &dto.ListCouponsRequest{ShopID: lo.ToPtr(int64(2))},
			wantCodes: []string{"HALF"},
			wantTotal: 1,
		},
		{
			name:      "staff without a shop sees no shop coupons",
			actor:     testutil.Staff(300, 2),
			wantCodes: []string{},
			wantTotal: 0,
		},
		{
			name:      "staff requesting a foreign shop sees nothing",
			actor:     testutil.Staff(300, 2),
			req:       &dto.ListCouponsRequest{ShopID: lo.ToPtr(int64(1))},
			wantCodes: []string{},
			wantTotal: 0,
		},
		{
			name:      "language selects the translation",
			actor:     testutil.SuperAdmin(1),
			req:       &dto.ListCouponsRequest{Language: "de"},
			wantCodes: []string{"SAVE10"},
			wantTotal: 1,
		},
		{
			name:  "pagination",
			actor: testutil.SuperAdmin(1),
			req: &dto.ListCouponsRequest{
				QueryFilter: types.QueryFilter{Limit: lo.ToPtr(1), Offset: lo.ToPtr(1)},
			},
			wantCodes: []string{"SAVE10"},
			wantTotal: 2,
		},
		{
			name:  "sorted by code ascending",
			actor: testutil.SuperAdmin(1),
			req: &dto.ListCouponsRequest{
				QueryFilter: types.QueryFilter{Sort: lo.ToPtr("code"), Order: lo.ToPtr(types.OrderAsc)},
			},
			wantCodes: []string{"HALF", "SAVE10"},
			wantTotal: 2,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			ctx := s.GetContext()
			if tt.actor != nil {
				ctx = s.GetContextAs(tt.actor)
			}

			resp, err := s.service.ListCoupons(ctx, tt.req)
			s.NoError(err)
			s.Equal(tt.wantTotal, resp.Pagination.Total)
			s.Equal(tt.wantCodes, lo.Map(resp.Items, func(c *dto.CouponResponse, _ int) string {
				return c.Code
			}))
		})
	}
}

func (s *CouponServiceSuite) TestListCouponsStaffWithoutAShop() {
	everywhere := s.newCoupon("ALL5", "en")
	s.NoError(s.couponRepo.Create(s.GetContext(), everywhere))
	everywhereDE := s.newCoupon("ALL5", "de")
	coupon.CopyShared(everywhereDE, everywhere)
	everywhereDE.GroupID = everywhere.GroupID
	s.NoError(s.couponRepo.Create(s.GetContext(), everywhereDE))

	staff := s.GetContextAs(testutil.Staff(300, 2))

	resp, err := s.service.ListCoupons(staff, nil)
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)
	s.Require().Len(resp.Items, 1)
	s.Equal(everywhere.ID, resp.Items[0].ID)

	resp, err = s.service.ListCoupons(staff, &dto.ListCouponsRequest{Language: "de"})
	s.NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(everywhereDE.ID, resp.Items[0].ID)

	// a requested shop drops the coupons that belong to none
	resp, err = s.service.ListCoupons(staff, &dto.ListCouponsRequest{ShopID: lo.ToPtr(int64(2))})
	s.NoError(err)
	s.Equal([]string{"HALF"}, lo.Map(resp.Items, func(c *dto.CouponResponse, _ int) string {
		return c.Code
	}))
}

func (s *CouponServiceSuite) TestUpdateCoupon() {
	s.Run("store owner edit of the default-language coupon needs approval again", func() {
		resp, err := s.service.UpdateCoupon(s.GetContextAs(testutil.StoreOwner(100, 1)), s.testData.save10.ID, dto.UpdateCouponRequest{
			Amount: lo.ToPtr(decimal.NewFromInt(15)),
		})
		s.NoError(err)
		s.False(resp.IsApprove)
		s.True(resp.Amount.Equal(decimal.NewFromInt(15)))

		translation, err := s.couponRepo.Get(s.GetContext(), s.testData.save10DE.ID)
		s.NoError(err)
		s.False(translation.IsApprove)
		s.True(translation.Amount.Equal(decimal.NewFromInt(15)))
		s.Equal("Zehn weniger", translation.Description)
	})

	s.Run("super admin edit keeps the approval state", func() {
		_, err := s.service.ApproveCoupon(s.GetContextAs(testutil.SuperAdmin(1)), s.testData.save10.ID)
		s.NoError(err)

		resp, err := s.service.UpdateCoupon(s.GetContextAs(testutil.SuperAdmin(1)), s.testData.save10.ID, dto.UpdateCouponRequest{
			Code: lo.ToPtr("save-ten"),
		})
		s.NoError(err)
		s.True(resp.IsApprove)
		s.Equal("SAVE-TEN", resp.Code)

		translation, err := s.couponRepo.Get(s.GetContext(), s.testData.save10DE.ID)
		s.NoError(err)
		s.Equal("SAVE-TEN", translation.Code)
		s.True(translation.IsApprove)
	})

	s.Run("translation edits stay on the translation", func() {
		resp, err := s.service.UpdateCoupon(s.GetContextAs(testutil.StoreOwner(100, 1)), s.testData.save10DE.ID, dto.UpdateCouponRequest{
			Description: lo.ToPtr("Zehn Euro weniger"),
		})
		s.NoError(err)
		s.Equal("Zehn Euro weniger", resp.Description)
		s.True(resp.IsApprove)

		canonical, err := s.couponRepo.Get(s.GetContext(), s.testData.save10.ID)
		s.NoError(err)
		s.Equal("Ten off", canonical.Description)
	})

	tests := []struct {
		name    string
		actor   *types.Actor
		id      int64
		req     dto.UpdateCouponRequest
		wantErr error
	}{
		{
			name:    "shared field on a translation",
			actor:   testutil.SuperAdmin(1),
			id:      s.testData.save10DE.ID,
			req:     dto.UpdateCouponRequest{Amount: lo.ToPtr(decimal.NewFromInt(1))},
			wantErr: ierr.ErrValidation,
		},
		{
			name:    "translation moved to the default language",
			actor:   testutil.SuperAdmin(1),
			id:      s.testData.save10DE.ID,
			req:     dto.UpdateCouponRequest{Language: lo.ToPtr("en")},
			wantErr: ierr.ErrValidation,
		},
		{
			name:    "language change on the default-language coupon",
			actor:   testutil.SuperAdmin(1),
			id:      s.testData.half.ID,
			req:     dto.UpdateCouponRequest{Language: lo.ToPtr("fr")},
			wantErr: ierr.ErrValidation,
		},
		{
			name:    "code already taken",
			actor:   testutil.SuperAdmin(1),
			id:      s.testData.half.ID,
			req:     dto.UpdateCouponRequest{Code: lo.ToPtr("save-ten")},
			wantErr: ierr.ErrAlreadyExists,
		},
		{
			name:  "window ends before it starts",
			actor: testutil.SuperAdmin(1),
			id:    s.testData.half.ID,
			req: dto.UpdateCouponRequest{
				ExpireAt: lo.ToPtr(s.GetNow().Add(-2 * time.Hour)),
			},
			wantErr: ierr.ErrValidation,
		},
		{
			name:    "invalid type",
			actor:   testutil.SuperAdmin(1),
			id:      s.testData.half.ID,
			req:     dto.UpdateCouponRequest{Type: lo.ToPtr(types.CouponType("bogus"))},
			wantErr: ierr.ErrValidation,
		},
		{
			name:    "store owner of another shop",
			actor:   testutil.StoreOwner(100, 1),
			id:      s.testData.half.ID,
			req:     dto.UpdateCouponRequest{Description: lo.ToPtr("mine now")},
			wantErr: ierr.ErrPermissionDenied,
		},
		{
			name:    "store owner moving a coupon to a shop they do not own",
			actor:   testutil.StoreOwner(100, 1),
			id:      s.testData.save10.ID,
			req:     dto.UpdateCouponRequest{ShopID: lo.ToPtr(int64(2))},
			wantErr: ierr.ErrPermissionDenied,
		},
		{
			name:    "staff",
			actor:   testutil.Staff(300, 2),
			id:      s.testData.half.ID,
			req:     dto.UpdateCouponRequest{Description: lo.ToPtr("staff edit")},
			wantErr: ierr.ErrPermissionDenied,
		},
		{
			name:    "unknown coupon",
			actor:   testutil.SuperAdmin(1),
			id:      999,
			req:     dto.UpdateCouponRequest{Description: lo.ToPtr("ghost")},
			wantErr: ierr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.UpdateCoupon(s.GetContextAs(tt.actor), tt.id, tt.req)
			s.Error(err)
			s.True(errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	s.Equal([]string{
		types.WebhookEventCouponUpdated,
		types.WebhookEventCouponApproved,
		types.WebhookEventCouponUpdated,
		types.WebhookEventCouponUpdated,
	}, s.GetWebhookPublisher().EventNames())
}

func (s *CouponServiceSuite) TestDeleteCoupon() {
	owner := s.GetContextAs(testutil.StoreOwner(100, 1))

	s.Run("deleting a translation keeps the group", func() {
		s.NoError(s.service.DeleteCoupon(owner, s.testData.save10DE.ID))

		_, err := s.couponRepo.Get(s.GetContext(), s.testData.save10DE.ID)
		s.True(ierr.IsNotFound(err))

		resp, err := s.service.GetCoupon(s.GetContext(), "SAVE10", "")
		s.NoError(err)
		s.Equal([]string{"en"}, resp.TranslatedLanguages)
	})

	s.Run("deleting the default-language coupon removes its translations", func() {
		translation := s.newCoupon("SAVE10", "fr")
		coupon.CopyShared(translation, s.testData.save10)
		translation.GroupID = s.testData.save10.GroupID
		s.NoError(s.couponRepo.Create(s.GetContext(), translation))

		s.NoError(s.service.DeleteCoupon(owner, s.testData.save10.ID))

		_, err := s.couponRepo.Get(s.GetContext(), translation.ID)
		s.True(ierr.IsNotFound(err))
		_, err = s.service.GetCoupon(s.GetContext(), "SAVE10", "")
		s.True(ierr.IsNotFound(err))
	})

	s.Run("the code can be reused after deletion", func() {
		c := s.newCoupon("SAVE10", "en")
		s.NoError(s.couponRepo.Create(s.GetContext(), c))
	})

	s.Run("deleting twice is not found", func() {
		err := s.service.DeleteCoupon(owner, s.testData.save10.ID)
		s.True(ierr.IsNotFound(err))
	})

	s.Run("other shops are off limits", func() {
		err := s.service.DeleteCoupon(owner, s.testData.half.ID)
		s.True(ierr.IsPermissionDenied(err))

		_, err = s.couponRepo.Get(s.GetContext(), s.testData.half.ID)
		s.NoError(err)
	})

	s.Equal([]string{
		types.WebhookEventCouponDeleted,
		types.WebhookEventCouponDeleted,
	}, s.GetWebhookPublisher().EventNames())
}

func (s *CouponServiceSuite) TestVerifyCoupon() {
	ctx := s.GetContext()
	now := s.GetNow()

	future := s.newCoupon("FUTURE", "en")
	future.IsApprove = true
	future.ActiveFrom = now.Add(time.Hour)
	future.ExpireAt = now.Add(48 * time.Hour)
	s.NoError(s.couponRepo.Create(ctx, future))

	expired := s.newCoupon("OLD", "en")
	expired.IsApprove = true
	expired.ActiveFrom = now.Add(-48 * time.Hour)
	expired.ExpireAt = now.Add(-time.Hour)
	s.NoError(s.couponRepo.Create(ctx, expired))

	pct := s.newCoupon("PCT", "en")
	pct.IsApprove = true
	pct.Type = types.CouponTypePercentage
	pct.Amount = decimal.RequireFromString("12.5")
	s.NoError(s.couponRepo.Create(ctx, pct))

	big := s.newCoupon("BIG", "en")
	big.IsApprove = true
	big.Amount = decimal.NewFromInt(50)
	s.NoError(s.couponRepo.Create(ctx, big))

	tests := []struct {
		name         string
		req          dto.VerifyCouponRequest
		wantValid    bool
		wantDiscount string
		wantReason   types.EligibilityReason
	}{
		{
			name:         "fixed discount",
			req:          dto.VerifyCouponRequest{Code: "SAVE10", SubTotal: lo.ToPtr(decimal.NewFromInt(100))},
			wantValid:    true,
			wantDiscount: "10",
		},
		{
			name:         "codes are case insensitive",
			req:          dto.VerifyCouponRequest{Code: " save10 ", SubTotal: lo.ToPtr(decimal.NewFromInt(100))},
			wantValid:    true,
			wantDiscount: "10",
		},
		{
			name:         "translation shares the approval state",
			req:          dto.VerifyCouponRequest{Code: "SAVE10", Language: "de", SubTotal: lo.ToPtr(decimal.NewFromInt(20))},
			wantValid:    true,
			wantDiscount: "10",
		},
		{
			name:         "percentage discount is rounded to cents",
			req:          dto.VerifyCouponRequest{Code: "PCT", SubTotal: lo.ToPtr(decimal.RequireFromString("19.99"))},
			wantValid:    true,
			wantDiscount: "2.5",
		},
		{
			name:         "fixed discount never exceeds the subtotal",
			req:          dto.VerifyCouponRequest{Code: "BIG", SubTotal: lo.ToPtr(decimal.NewFromInt(30))},
			wantValid:    true,
			wantDiscount: "30",
		},
		{
			name:       "unknown code",
			req:        dto.VerifyCouponRequest{Code: "NOPE", SubTotal: lo.ToPtr(decimal.NewFromInt(100))},
			wantReason: types.EligibilityReasonNotFound,
		},
		{
			name:       "unapproved",
			req:        dto.VerifyCouponRequest{Code: "HALF", SubTotal: lo.ToPtr(decimal.NewFromInt(100))},
			wantReason: types.EligibilityReasonNotApproved,
		},
		{
			name:       "not active yet",
			req:        dto.VerifyCouponRequest{Code: "FUTURE", SubTotal: lo.ToPtr(decimal.NewFromInt(100))},
			wantReason: types.EligibilityReasonNotYetActive,
		},
		{
			name:       "expired",
			req:        dto.VerifyCouponRequest{Code: "OLD", SubTotal: lo.ToPtr(decimal.NewFromInt(100))},
			wantReason: types.EligibilityReasonExpired,
		},
		{
			name:       "below the minimum cart amount",
			req:        dto.VerifyCouponRequest{Code: "SAVE10", SubTotal: lo.ToPtr(decimal.RequireFromString("19.99"))},
			wantReason: types.EligibilityReasonBelowMinimum,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.service.VerifyCoupon(ctx, tt.req)
			s.NoError(err)
			s.Equal(tt.wantValid, resp.IsValid)
			if !tt.wantValid {
				s.Equal(tt.wantReason.String(), resp.Reason)
				s.True(resp.DiscountAmount.IsZero())
				s.True(resp.Total.Equal(*tt.req.SubTotal))
				s.Nil(resp.Coupon)
				return
			}
			s.Empty(resp.Reason)
			s.Equal(tt.wantDiscount, resp.DiscountAmount.String())
			s.True(resp.Total.Equal(tt.req.SubTotal.Sub(resp.DiscountAmount)))
			s.NotNil(resp.Coupon)
		})
	}

	s.Run("invalid requests are errors", func() {
		_, err := s.service.VerifyCoupon(ctx, dto.VerifyCouponRequest{Code: "SAVE10", SubTotal: lo.ToPtr(decimal.NewFromInt(-1))})
		s.True(ierr.IsValidation(err))

		_, err = s.service.VerifyCoupon(ctx, dto.VerifyCouponRequest{Code: "SAVE10"})
		s.True(ierr.IsValidation(err))
	})

	s.Equal(1.0, promtestutil.ToFloat64(s.GetMetrics().VerifyTotal.WithLabelValues(types.EligibilityReasonNotFound.String())))
	s.Equal(5.0, promtestutil.ToFloat64(s.GetMetrics().VerifyTotal.WithLabelValues("valid")))
}

func (s *CouponServiceSuite) TestVerifySeesCommittedWrites() {
	ctx := s.GetContext()
	admin := s.GetContextAs(testutil.SuperAdmin(1))
	req := dto.VerifyCouponRequest{Code: "SAVE10", SubTotal: lo.ToPtr(decimal.NewFromInt(100))}

	resp, err := s.service.VerifyCoupon(ctx, req)
	s.NoError(err)
	s.True(resp.IsValid)

	_, err = s.service.DisapproveCoupon(admin, s.testData.save10.ID)
	s.NoError(err)

	resp, err = s.service.VerifyCoupon(ctx, req)
	s.NoError(err)
	s.False(resp.IsValid)
	s.Equal(types.EligibilityReasonNotApproved.String(), resp.Reason)
}

// interleavingCouponStore runs afterGetByCode once, right after a code lookup
// has read the store and before the caller gets the result back
type interleavingCouponStore struct {
	*testutil.InMemoryCouponStore
	afterGetByCode func()
}

func (s *interleavingCouponStore) GetByCode(ctx context.Context, code string, language string) (*coupon.Coupon, error) {
	c, err := s.InMemoryCouponStore.GetByCode(ctx, code, language)
	if hook := s.afterGetByCode; hook != nil {
		s.afterGetByCode = nil
		hook()
	}
	return c, err
}

func (s *CouponServiceSuite) newInterleavedService() (CouponService, *interleavingCouponStore) {
	store := &interleavingCouponStore{InMemoryCouponStore: s.couponRepo}
	svc := NewCouponService(NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		store,
		s.GetWebhookPublisher(),
		s.GetMetrics(),
	))
	svc.(*couponService).now = s.GetNow
	return svc, store
}

func (s *CouponServiceSuite) TestVerifyDoesNotCacheLookupsRacingAWrite() {
	ctx := s.GetContext()
	admin := s.GetContextAs(testutil.SuperAdmin(1))
	req := dto.VerifyCouponRequest{Code: "SAVE10", SubTotal: lo.ToPtr(decimal.NewFromInt(100))}

	tests := []struct {
		name       string
		write      func(svc CouponService) error
		wantReason types.EligibilityReason
	}{
		{
			name: "disapproved",
			write: func(svc CouponService) error {
				_, err := svc.DisapproveCoupon(admin, s.testData.save10.ID)
				return err
			},
			wantReason: types.EligibilityReasonNotApproved,
		},
		{
			name: "expired by an edit",
			write: func(svc CouponService) error {
				_, err := svc.UpdateCoupon(admin, s.testData.save10.ID, dto.UpdateCouponRequest{
					ActiveFrom: lo.ToPtr(s.GetNow().Add(-48 * time.Hour)),
					ExpireAt:   lo.ToPtr(s.GetNow().Add(-24 * time.Hour)),
				})
				return err
			},
			wantReason: types.EligibilityReasonExpired,
		},
		{
			name: "deleted",
			write: func(svc CouponService) error {
				return svc.DeleteCoupon(admin, s.testData.save10.ID)
			},
			wantReason: types.EligibilityReasonNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			svc, store := s.newInterleavedService()
			store.afterGetByCode = func() {
				s.Require().NoError(tt.write(svc))
			}

			// decided on the row read before the write committed
			first, err := svc.VerifyCoupon(ctx, req)
			s.Require().NoError(err)
			s.True(first.IsValid)
			s.Require().NotNil(first.Coupon)
			s.Equal(s.testData.save10.ID, first.Coupon.ID)

			second, err := svc.VerifyCoupon(ctx, req)
			s.Require().NoError(err)
			s.False(second.IsValid)
			s.Equal(tt.wantReason.String(), second.Reason)
		})
	}
}

func (s *CouponServiceSuite) TestApproveCoupon() {
	admin := s.GetContextAs(testutil.SuperAdmin(1))

	s.Run("only super admins, checked before the coupon is looked up", func() {
		_, err := s.service.ApproveCoupon(s.GetContextAs(testutil.StoreOwner(200, 2)), s.testData.half.ID)
		s.True(ierr.IsPermissionDenied(err))

		_, err = s.service.ApproveCoupon(s.GetContext(), 999)
		s.True(ierr.IsPermissionDenied(err))
	})

	s.Run("approves the coupon", func() {
		resp, err := s.service.ApproveCoupon(admin, s.testData.half.ID)
		s.NoError(err)
		s.True(resp.IsApprove)
	})

	s.Run("approving twice changes nothing", func() {
		resp, err := s.service.ApproveCoupon(admin, s.testData.half.ID)
		s.NoError(err)
		s.True(resp.IsApprove)
	})

	s.Run("disapproving through a translation covers the group", func() {
		resp, err := s.service.DisapproveCoupon(admin, s.testData.save10DE.ID)
		s.NoError(err)
		s.Equal(s.testData.save10DE.ID, resp.ID)
		s.False(resp.IsApprove)

		canonical, err := s.couponRepo.Get(s.GetContext(), s.testData.save10.ID)
		s.NoError(err)
		s.False(canonical.IsApprove)
	})

	s.Run("unknown coupon", func() {
		_, err := s.service.DisapproveCoupon(admin, 999)
		s.True(ierr.IsNotFound(err))
	})

	s.Equal([]string{
		types.WebhookEventCouponApproved,
		types.WebhookEventCouponDisapproved,
	}, s.GetWebhookPublisher().EventNames())
}

func (s *CouponServiceSuite) TestEvents() {
	ctx := s.GetContextAs(testutil.SuperAdmin(1))
	now := s.GetNow()
	req := dto.CreateCouponRequest{
		Code:       "EVENTS",
		Type:       types.CouponTypeFixed,
		Amount:     decimal.NewFromInt(5),
		ActiveFrom: lo.ToPtr(now),
		ExpireAt:   lo.ToPtr(now.Add(time.Hour)),
	}

	resp, err := s.service.CreateCoupon(ctx, req)
	s.NoError(err)

	events := s.GetWebhookPublisher().Events()
	s.Len(events, 1)
	s.Equal(types.WebhookEventCouponCreated, events[0].EventName)
	s.Equal(types.GetRequestID(ctx), events[0].RequestID)
	s.Equal(int64(1), events[0].UserID)
	s.Contains(string(events[0].Payload), `"code":"EVENTS"`)

	s.Run("a failing event bus does not fail the write", func() {
		s.GetWebhookPublisher().SetFailing(true)
		_, err := s.service.UpdateCoupon(ctx, resp.ID, dto.UpdateCouponRequest{Description: lo.ToPtr("still saved")})
		s.NoError(err)

		stored, err := s.couponRepo.Get(s.GetContext(), resp.ID)
		s.NoError(err)
		s.Equal("still saved", stored.Description)
	})
}

func (s *CouponServiceSuite) TestStorageFailures() {
	s.couponRepo.FailWith(errors.New("connection refused"))

	_, err := s.service.VerifyCoupon(s.GetContext(), dto.VerifyCouponRequest{Code: "MISSING", SubTotal: lo.ToPtr(decimal.NewFromInt(10))})
	s.True(ierr.IsDatabase(err), "storage failure must not read as a missing coupon")

	_, err = s.service.ListCoupons(s.GetContext(), nil)
	s.True(ierr.IsDatabase(err))

	_, err = s.service.GetCoupon(s.GetContext(), "1", "")
	s.True(ierr.IsDatabase(err))

	_, err = s.service.ApproveCoupon(s.GetContextAs(testutil.SuperAdmin(1)), s.testData.half.ID)
	s.True(ierr.IsDatabase(err))
	s.Empty(s.GetWebhookPublisher().Events())
}
