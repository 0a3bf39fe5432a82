package routes

import (
	"github.com/Govind-619/FolioForge/middleware"
	"github.com/gin-gonic/gin"
)

// initAdminRoutes initializes all admin-related routes
func initAdminRoutes(router *gin.RouterGroup, deps Dependencies, h handlers) {
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(deps.Config.JWTSecret, deps.Store), middleware.AdminMiddleware())
	{
		coupons := admin.Group("/coupons")
		{
			coupons.GET("", h.admin.ListCoupons)
			coupons.POST("", h.admin.CreateCoupon)
			coupons.PUT("/:code", h.admin.UpdateCoupon)
			coupons.DELETE("/:code", h.admin.DeactivateCoupon)
		}

		payments := admin.Group("/payments")
		{
			payments.GET("", h.admin.ListPayments)
			payments.GET("/export", h.admin.ExportPayments)
		}
	}
}
