package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/Govind-619/FolioForge/config"
	"github.com/Govind-619/FolioForge/controllers"
	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/metrics"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Config      *config.Config
	Store       store.Store
	Billing     *services.BillingService
	Portfolios  *services.PortfolioService
	Metrics     *metrics.Metrics
	OAuth       *oauth2.Config
	FakeGateway *gateway.FakeGateway
}

type handlers struct {
	auth      *controllers.AuthController
	billing   *controllers.BillingController
	webhook   *controllers.WebhookController
	portfolio *controllers.PortfolioController
	payment   *controllers.PaymentController
	admin     *controllers.AdminController
}

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())
	router.Use(utils.CORSMiddleware(cfg.CORSOrigins))
	router.Use(deps.Metrics.Middleware())
	if cfg.MaxRequestBodyBytes > 0 {
		router.Use(utils.BodySizeLimitMiddleware(cfg.MaxRequestBodyBytes))
	}

	// Cookie session, only used for the OAuth state
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		MaxAge:   10 * 60,
		Path:     "/",
		Secure:   cfg.IsProduction(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("folioforge", sessionStore))

	h := handlers{
		auth:      controllers.NewAuthController(deps.Store, cfg.JWTSecret, cfg.JWTTTL, deps.OAuth, cfg.FrontendURL),
		billing:   controllers.NewBillingController(deps.Billing, cfg.RazorpayKeyID, deps.FakeGateway),
		webhook:   controllers.NewWebhookController(deps.Billing),
		portfolio: controllers.NewPortfolioController(deps.Portfolios),
		payment:   controllers.NewPaymentController(deps.Store, deps.Billing.Catalog()),
		admin:     controllers.NewAdminController(deps.Store),
	}

	router.GET("/health", healthHandler(deps.Store))
	router.GET("/metrics", deps.Metrics.Handler())
	router.GET("/p/:slug", h.portfolio.Public)

	api := router.Group("/api")
	{
		initUserRoutes(api, deps, h)
		initAdminRoutes(api, deps, h)
	}

	return router
}

func healthHandler(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			utils.LogError("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
