package config

import (
	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/plans"
	"github.com/Govind-619/FolioForge/utils"
)

// PaymentGatewayFor builds the configured gateway behind a circuit breaker.
// The fake gateway is returned as well so development tooling can settle
// its orders.
func PaymentGatewayFor(cfg *Config) (gateway.Gateway, *gateway.FakeGateway) {
	var next gateway.Gateway
	var fake *gateway.FakeGateway
	switch cfg.PaymentGateway {
	case GatewayFake:
		fake = gateway.NewFakeGateway(cfg.RazorpayKeySecret)
		next = fake
		utils.LogWarn("Using the fake payment gateway")
	default:
		next = gateway.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}
	return gateway.NewBreakerGateway(next, gateway.BreakerConfig{
		MaxRequests:         cfg.BreakerMaxRequests,
		Interval:            cfg.BreakerInterval,
		Timeout:             cfg.BreakerTimeout,
		ConsecutiveFailures: cfg.BreakerFailures,
	}), fake
}

// PlanCatalog loads PLANS_FILE, or the built-in catalog when it is unset.
func PlanCatalog(cfg *Config) (*plans.Catalog, error) {
	if cfg.PlansFile == "" {
		return plans.DefaultCatalog(), nil
	}
	catalog, err := plans.LoadCatalog(cfg.PlansFile)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Loaded %d plans from %s", len(catalog.List()), cfg.PlansFile)
	return catalog, nil
}
