package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Govind-619/FolioForge/config"
	"github.com/Govind-619/FolioForge/metrics"
	"github.com/Govind-619/FolioForge/routes"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	// Initialize logger
	logCloser, err := utils.InitLogger(cfg.Logger())
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logCloser.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	st, err := config.OpenStore(ctx, cfg)
	if err != nil {
		utils.LogError("Failed to open store: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	catalog, err := config.PlanCatalog(cfg)
	if err != nil {
		utils.LogError("Failed to load plan catalog: %v", err)
		os.Exit(1)
	}

	var mailer utils.Mailer = utils.NopMailer{}
	if cfg.SMTPHost != "" {
		mailer = utils.NewSMTPMailer(cfg.Email())
	}

	m := metrics.New(nil)
	gw, fake := config.PaymentGatewayFor(cfg)
	billing := services.NewBillingService(st, gw, catalog, services.BillingConfig{
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
		Currency:      cfg.Currency,
	}, mailer, m)
	if cfg.RazorpayWebhookSecret == "" {
		utils.LogWarn("RAZORPAY_WEBHOOK_SECRET is not set, webhooks will be rejected")
	}

	router := routes.SetupRouter(routes.Dependencies{
		Config:      cfg,
		Store:       st,
		Billing:     billing,
		Portfolios:  services.NewPortfolioService(st),
		Metrics:     m,
		OAuth:       config.GoogleOAuth(cfg),
		FakeGateway: fake,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError("Error starting server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server forced to shutdown: %v", err)
	}
}
