package v1

import (
	"net/http"
	"strconv"

	"github.com/flexprice/coupon-service/internal/api/dto"
	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/logger"
	"github.com/flexprice/coupon-service/internal/service"
	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	couponService service.CouponService
	logger        *logger.Logger
}

func NewCouponHandler(couponService service.CouponService, logger *logger.Logger) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
		logger:        logger,
	}
}

// @Summary List coupons
// @Description Lists the coupons visible to the caller, most recently updated first
// @Tags Coupons
// @Produce json
// @Param filter query dto.ListCouponsRequest false "Filter"
// @Success 200 {object} dto.ListCouponsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /coupons [get]
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	var req dto.ListCouponsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.ListCoupons(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Get a coupon
// @Description Retrieves a coupon by numeric ID, or by code in the requested language
// @Tags Coupons
// @Produce json
// @Param id path string true "Coupon ID or code"
// @Param language query string false "Language of the coupon when looking up by code"
// @Success 200 {object} dto.CouponResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /coupons/{id} [get]
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	idOrCode := c.Param("id")
	if idOrCode == "" {
		c.Error(ierr.NewError("coupon ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.GetCoupon(c.Request.Context(), idOrCode, c.Query("language"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Create a coupon
// @Description Creates a coupon, or a translation of an existing coupon when language is not the default
// @Tags Coupons
// @Accept json
// @Produce json
// @Param coupon body dto.CreateCouponRequest true "Coupon request"
// @Success 201 {object} dto.CouponResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /coupons [post]
// @Security BearerAuth
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// @Summary Update a coupon
// @Description Updates a coupon. Edits of the default-language coupon apply to all its translations.
// @Tags Coupons
// @Accept json
// @Produce json
// @Param id path int true "Coupon ID"
// @Param coupon body dto.UpdateCouponRequest true "Coupon update"
// @Success 200 {object} dto.CouponResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /coupons/{id} [put]
// @Security BearerAuth
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := parseCouponID(c, c.Param("id"))
	if !ok {
		return
	}

	var req dto.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.UpdateCoupon(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Delete a coupon
// @Description Deletes a coupon. Deleting the default-language coupon deletes its translations too.
// @Tags Coupons
// @Produce json
// @Param id path int true "Coupon ID"
// @Success 200 {object} gin.H
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /coupons/{id} [delete]
// @Security BearerAuth
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := parseCouponID(c, c.Param("id"))
	if !ok {
		return
	}

	if err := h.couponService.DeleteCoupon(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "coupon deleted successfully"})
}

// @Summary Verify a coupon
// @Description Checks whether a coupon applies to a cart subtotal and returns the discount
// @Tags Coupons
// @Accept json
// @Produce json
// @Param request body dto.VerifyCouponRequest true "Verification request"
// @Success 200 {object} dto.VerifyCouponResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 429 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /coupons/verify [post]
func (h *CouponHandler) VerifyCoupon(c *gin.Context) {
	var req dto.VerifyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("code and a numeric sub_total are required").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.VerifyCoupon(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Approve a coupon
// @Description Approves a coupon and all its translations. Super admins only.
// @Tags Coupons
// @Accept json
// @Produce json
// @Param request body dto.CouponApprovalRequest true "Coupon to approve"
// @Success 200 {object} dto.CouponResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /approve-coupon [post]
// @Security BearerAuth
func (h *CouponHandler) ApproveCoupon(c *gin.Context) {
	req, ok := bindApprovalRequest(c)
	if !ok {
		return
	}

	response, err := h.couponService.ApproveCoupon(c.Request.Context(), req.ID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Disapprove a coupon
// @Description Withdraws approval of a coupon and all its translations. Super admins only.
// @Tags Coupons
// @Accept json
// @Produce json
// @Param request body dto.CouponApprovalRequest true "Coupon to disapprove"
// @Success 200 {object} dto.CouponResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /disapprove-coupon [post]
// @Security BearerAuth
func (h *CouponHandler) DisapproveCoupon(c *gin.Context) {
	req, ok := bindApprovalRequest(c)
	if !ok {
		return
	}

	response, err := h.couponService.DisapproveCoupon(c.Request.Context(), req.ID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func bindApprovalRequest(c *gin.Context) (*dto.CouponApprovalRequest, bool) {
	var req dto.CouponApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return nil, false
	}
	return &req, true
}

func parseCouponID(c *gin.Context, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.Error(ierr.NewError("invalid coupon id").
			WithHint("Coupon ID must be a positive integer").
			WithReportableDetails(map[string]any{"id": raw}).
			Mark(ierr.ErrValidation))
		return 0, false
	}
	return id, true
}
