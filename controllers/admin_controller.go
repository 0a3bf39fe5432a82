package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

// AdminController manages coupons and reports payments.
type AdminController struct {
	store store.Store
	now   func() time.Time
}

func NewAdminController(st store.Store) *AdminController {
	return &AdminController{store: st, now: time.Now}
}

// CouponRequest is the body of coupon create and update
type CouponRequest struct {
	Code          string    `json:"code"`
	DiscountType  string    `json:"discount_type" binding:"required"`
	DiscountValue float64   `json:"discount_value" binding:"required"`
	MinAmount     *float64  `json:"min_amount"`
	MaxDiscount   *float64  `json:"max_discount"`
	ValidUntil    time.Time `json:"valid_until" binding:"required"`
	IsActive      *bool     `json:"is_active"`
}

func (a *AdminController) validateCoupon(req CouponRequest, requireFuture bool) error {
	var errs utils.FieldValidationErrors
	if err := utils.ValidateCouponCode(req.Code); err != nil {
		errs.Add("code", err.Error())
	}
	if err := utils.ValidateCouponValue(req.DiscountType, req.DiscountValue); err != nil {
		errs.Add("discount_value", err.Error())
	}
	if req.MinAmount != nil && *req.MinAmount < 0 {
		errs.Add("min_amount", "must not be negative")
	}
	if req.MaxDiscount != nil && *req.MaxDiscount <= 0 {
		errs.Add("max_discount", "must be greater than 0")
	}
	if requireFuture && !req.ValidUntil.After(a.now()) {
		errs.Add("valid_until", "must be in the future")
	}
	return errs.Err()
}

func (req CouponRequest) coupon() models.Coupon {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return models.Coupon{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinAmount:     req.MinAmount,
		MaxDiscount:   req.MaxDiscount,
		ValidUntil:    req.ValidUntil,
		IsActive:      active,
	}
}

// ListCoupons returns every coupon.
func (a *AdminController) ListCoupons(c *gin.Context) {
	coupons, err := a.store.ListCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Coupons retrieved successfully", gin.H{"coupons": coupons})
}

// CreateCoupon adds a coupon.
func (a *AdminController) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Code = models.NormalizeCouponCode(req.Code)
	req.DiscountType = strings.ToLower(strings.TrimSpace(req.DiscountType))
	if err := a.validateCoupon(req, true); err != nil {
		utils.BadRequest(c, "Validation failed", err)
		return
	}

	coupon := req.coupon()
	if err := a.store.CreateCoupon(c.Request.Context(), &coupon); err != nil {
		respondError(c, err)
		return
	}
	utils.LogInfo("Coupon %s created", coupon.Code)
	utils.Created(c, "Coupon created successfully", coupon)
}

// UpdateCoupon replaces a coupon's terms.
func (a *AdminController) UpdateCoupon(c *gin.Context) {
	var req CouponRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Code = models.NormalizeCouponCode(c.Param("code"))
	req.DiscountType = strings.ToLower(strings.TrimSpace(req.DiscountType))
	if err := a.validateCoupon(req, false); err != nil {
		utils.BadRequest(c, "Validation failed", err)
		return
	}

	coupon := req.coupon()
	if err := a.store.UpdateCoupon(c.Request.Context(), &coupon); err != nil {
		respondError(c, err)
		return
	}
	utils.LogInfo("Coupon %s updated", coupon.Code)
	utils.Success(c, utils.MsgUpdateSuccess, coupon)
}

// DeactivateCoupon disables a coupon. Coupons are never deleted so past
// payments keep a valid reference.
func (a *AdminController) DeactivateCoupon(c *gin.Context) {
	code := models.NormalizeCouponCode(c.Param("code"))
	if err := a.store.DeactivateCoupon(c.Request.Context(), code); err != nil {
		respondError(c, err)
		return
	}
	utils.LogInfo("Coupon %s deactivated", code)
	utils.Success(c, "Coupon deactivated successfully", nil)
}

// ListPayments returns payments of every user, or of ?user_id=.
func (a *AdminController) ListPayments(c *gin.Context) {
	page := utils.NewPagination(c)
	records, total, err := a.store.ListPayments(c.Request.Context(), c.Query("user_id"), page.Offset, page.PerPage)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithPagination(c, "Payments retrieved successfully", records, page, total)
}

// ExportPayments downloads every payment as an Excel workbook.
func (a *AdminController) ExportPayments(c *gin.Context) {
	records, _, err := a.store.ListPayments(c.Request.Context(), c.Query("user_id"), 0, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := services.ExportPaymentsXLSX(records)
	if err != nil {
		respondError(c, utils.InternalError("Failed to generate export", err))
		return
	}

	filename := fmt.Sprintf("payments_%s.xlsx", a.now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
