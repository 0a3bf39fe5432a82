package controllers

import (
	"fmt"
	"net/http"

	"github.com/Govind-619/FolioForge/middleware"
	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/plans"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

// PaymentController serves a user's payment history and receipts.
type PaymentController struct {
	store   store.Store
	catalog *plans.Catalog
}

func NewPaymentController(st store.Store, catalog *plans.Catalog) *PaymentController {
	return &PaymentController{store: st, catalog: catalog}
}

// List returns the caller's payments, newest first.
func (p *PaymentController) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	page := utils.NewPagination(c)

	records, total, err := p.store.ListPayments(c.Request.Context(), user.ID, page.Offset, page.PerPage)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithPagination(c, "Payments retrieved successfully", records, page, total)
}

// Receipt renders the PDF receipt of one of the caller's payments. Admins
// may download any receipt.
func (p *PaymentController) Receipt(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	ctx := c.Request.Context()

	rec, err := p.store.GetPayment(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if rec.UserID != user.ID && !user.IsAdmin {
		utils.NotFound(c, "Payment not found")
		return
	}

	owner := user
	if rec.UserID != user.ID {
		if owner, err = p.store.GetUserByID(ctx, rec.UserID); err != nil {
			respondError(c, err)
			return
		}
	}

	pdf, err := services.RenderReceiptPDF(owner, rec, p.planName(rec))
	if err != nil {
		respondError(c, utils.InternalError("Failed to generate receipt", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", rec.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (p *PaymentController) planName(rec models.PaymentRecord) string {
	if plan, err := p.catalog.Get(rec.PlanID); err == nil {
		return plan.Name
	}
	return rec.PlanID
}
