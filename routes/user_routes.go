package routes

import (
	"github.com/Govind-619/FolioForge/middleware"
	"github.com/gin-gonic/gin"
)

// initUserRoutes initializes all user-related routes
func initUserRoutes(router *gin.RouterGroup, deps Dependencies, h handlers) {
	// Public routes
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.auth.Register)
		auth.POST("/login", h.auth.Login)
		auth.GET("/google/login", h.auth.GoogleLogin)
		auth.GET("/google/callback", h.auth.GoogleCallback)
	}
	router.GET("/plans", h.billing.ListPlans)
	router.POST("/apply-coupon", h.billing.ApplyCoupon)
	router.POST("/webhooks/razorpay", h.webhook.Razorpay)

	// Protected routes
	user := router.Group("")
	user.Use(middleware.AuthMiddleware(deps.Config.JWTSecret, deps.Store))
	{
		user.GET("/me", h.auth.Me)

		user.POST("/create-order", h.billing.CreateOrder)
		user.POST("/verify-payment", h.billing.VerifyPayment)
		user.POST("/activate-free-plan", h.billing.ActivateFreePlan)

		user.GET("/payments", h.payment.List)
		user.GET("/payments/:id/receipt", h.payment.Receipt)

		portfolios := user.Group("/portfolios")
		{
			portfolios.POST("", h.portfolio.Create)
			portfolios.GET("", h.portfolio.List)
			portfolios.GET("/:id", h.portfolio.Get)
			portfolios.PUT("/:id", h.portfolio.Update)
			portfolios.DELETE("/:id", h.portfolio.Delete)
			portfolios.POST("/:id/publish", h.portfolio.Publish)
			portfolios.POST("/:id/unpublish", h.portfolio.Unpublish)
		}

		if deps.FakeGateway != nil && !deps.Config.IsProduction() {
			user.POST("/dev/pay", h.billing.DevPay)
		}
	}
}
