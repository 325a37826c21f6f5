package dto

import (
	"testing"
	"time"

	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCouponRequestValidateDefaultLanguage(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	valid := func() CreateCouponRequest {
		return CreateCouponRequest{
			Code:       "SAVE10",
			Type:       types.CouponTypeFixed,
			Amount:     decimal.NewFromInt(10),
			ActiveFrom: lo.ToPtr(now),
			ExpireAt:   lo.ToPtr(now.Add(time.Hour)),
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *CreateCouponRequest)
		wantErr bool
	}{
		{name: "valid"},
		{name: "single instant window", mutate: func(r *CreateCouponRequest) { r.ExpireAt = r.ActiveFrom }},
		{name: "missing type", mutate: func(r *CreateCouponRequest) { r.Type = "" }, wantErr: true},
		{name: "unknown type", mutate: func(r *CreateCouponRequest) { r.Type = "bogus" }, wantErr: true},
		{name: "missing window", mutate: func(r *CreateCouponRequest) { r.ExpireAt = nil }, wantErr: true},
		{name: "inverted window", mutate: func(r *CreateCouponRequest) { r.ExpireAt = lo.ToPtr(now.Add(-time.Second)) }, wantErr: true},
		{name: "negative minimum", mutate: func(r *CreateCouponRequest) { r.MinimumCartAmount = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "unknown target", mutate: func(r *CreateCouponRequest) { r.Target = "vip" }, wantErr: true},
		{
			name: "percentage of exactly 100",
			mutate: func(r *CreateCouponRequest) {
				r.Type = types.CouponTypePercentage
				r.Amount = decimal.NewFromInt(100)
			},
		},
		{
			name: "percentage above 100",
			mutate: func(r *CreateCouponRequest) {
				r.Type = types.CouponTypePercentage
				r.Amount = decimal.RequireFromString("100.01")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			if tt.mutate != nil {
				tt.mutate(&r)
			}
			err := r.ValidateDefaultLanguage()
			if tt.wantErr {
				assert.True(t, ierr.IsValidation(err), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateCouponRequestValidate(t *testing.T) {
	assert.True(t, ierr.IsValidation((&CreateCouponRequest{}).Validate()))
	assert.True(t, ierr.IsValidation((&CreateCouponRequest{Code: "X", ShopID: lo.ToPtr(int64(0))}).Validate()))
	assert.NoError(t, (&CreateCouponRequest{Code: "X"}).Validate())
}

func TestCreateCouponRequestToCoupon(t *testing.T) {
	local := time.FixedZone("UTC+2", 2*60*60)
	from := time.Date(2024, 5, 1, 10, 0, 0, 0, local)

	c := (&CreateCouponRequest{
		Code:       "SAVE10",
		Language:   "en",
		Type:       types.CouponTypeFixed,
		Amount:     decimal.NewFromInt(10),
		ActiveFrom: lo.ToPtr(from),
		ExpireAt:   lo.ToPtr(from.Add(time.Hour)),
	}).ToCoupon()

	assert.Equal(t, types.CouponTargetGlobalCustomer, c.Target)
	assert.Equal(t, time.UTC, c.ActiveFrom.Location())
	assert.True(t, c.ActiveFrom.Equal(from))
	assert.Equal(t, types.StatusPublished, c.Status)
	assert.Zero(t, c.ID)
	assert.False(t, c.IsApprove)
}

func TestUpdateCouponRequest(t *testing.T) {
	req := UpdateCouponRequest{
		Description: lo.ToPtr("new"),
		Amount:      lo.ToPtr(decimal.NewFromInt(5)),
	}
	assert.Equal(t, []string{"description", "amount"}, req.ChangedFields())
	assert.Empty(t, (&UpdateCouponRequest{}).ChangedFields())

	c := (&CreateCouponRequest{Code: "SAVE10", Type: types.CouponTypeFixed, Amount: decimal.NewFromInt(10)}).ToCoupon()
	req.Apply(c)
	assert.Equal(t, "new", c.Description)
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "SAVE10", c.Code)

	assert.True(t, ierr.IsValidation((&UpdateCouponRequest{Type: lo.ToPtr(types.CouponType("bogus"))}).Validate()))
	assert.True(t, ierr.IsValidation((&UpdateCouponRequest{Code: lo.ToPtr("")}).Validate()))
}

func TestVerifyCouponRequestValidate(t *testing.T) {
	assert.True(t, ierr.IsValidation((&VerifyCouponRequest{Code: "SAVE10"}).Validate()))
	assert.True(t, ierr.IsValidation((&VerifyCouponRequest{SubTotal: lo.ToPtr(decimal.NewFromInt(1))}).Validate()))
	assert.True(t, ierr.IsValidation((&VerifyCouponRequest{Code: "SAVE10", SubTotal: lo.ToPtr(decimal.NewFromInt(-1))}).Validate()))
	assert.NoError(t, (&VerifyCouponRequest{Code: "SAVE10", SubTotal: lo.ToPtr(decimal.Zero)}).Validate())
}

func TestNewCouponResponse(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := (&CreateCouponRequest{
		Code:       "SAVE10",
		Language:   "en",
		ActiveFrom: lo.ToPtr(now.Add(-time.Hour)),
		ExpireAt:   lo.ToPtr(now),
	}).ToCoupon()

	resp := NewCouponResponse(c, now, nil)
	require.NotNil(t, resp)
	assert.True(t, resp.IsValid)
	assert.Equal(t, []string{"en"}, resp.TranslatedLanguages)

	resp = NewCouponResponse(c, now.Add(time.Second), []string{"en", "de"})
	assert.False(t, resp.IsValid)
	assert.Equal(t, []string{"en", "de"}, resp.TranslatedLanguages)
}
