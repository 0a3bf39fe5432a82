package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Govind-619/FolioForge/utils"
	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Payment gateways
const (
	GatewayRazorpay = "razorpay"
	GatewayFake     = "fake"
)

// Config holds all configuration for the application
type Config struct {
	Port string
	Env  string

	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	MongoURI    string
	MongoDB     string

	PaymentGateway        string
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	Currency              string
	PlansFile             string

	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	BreakerFailures     uint32
	ShutdownTimeout     time.Duration
	MaxRequestBodyBytes int64

	JWTSecret     string
	JWTTTL        time.Duration
	SessionSecret string
	FrontendURL   string
	CORSOrigins   []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LogLevel  string
	LogFormat string
	LogDir    string
}

// LoadConfig loads configuration from a .env file, when present, and the
// environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the environment and applies defaults. It does not validate.
func FromEnv() (*Config, error) {
	p := &envParser{}
	cfg := &Config{
		Port: getEnv("PORT", utils.DefaultPort),
		Env:  getEnv("ENV", "development"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "folioforge"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:     getEnv("MONGO_DB", "folioforge"),

		PaymentGateway:        strings.ToLower(getEnv("PAYMENT_GATEWAY", GatewayRazorpay)),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		Currency:              strings.ToUpper(getEnv("CURRENCY", utils.DefaultCurrency)),
		PlansFile:             os.Getenv("PLANS_FILE"),

		BreakerMaxRequests:  uint32(p.int("BREAKER_MAX_REQUESTS", 3)),
		BreakerInterval:     p.duration("BREAKER_INTERVAL", 60*time.Second),
		BreakerTimeout:      p.duration("BREAKER_TIMEOUT", 30*time.Second),
		BreakerFailures:     uint32(p.int("BREAKER_FAILURES", 5)),
		ShutdownTimeout:     p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodyBytes: int64(p.int("MAX_REQUEST_BODY_BYTES", 1<<20)),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        p.duration("JWT_TTL", utils.JWTExpiration),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     p.int("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "billing@folioforge.app"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogDir:    os.Getenv("LOG_DIR"),
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can start the server.
func (c *Config) Validate() error {
	var errs utils.FieldValidationErrors

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs.Add("PORT", "must be a number")
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" && (c.DBUser == "" || c.DBName == "") {
			errs.Add("DATABASE_URL", "set DATABASE_URL or DB_USER and DB_NAME")
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			errs.Add("MONGO_URI", "MONGO_URI and MONGO_DB are required")
		}
	case DriverMemory:
	default:
		errs.Add("DB_DRIVER", "must be postgres, mongo or memory")
	}

	switch c.PaymentGateway {
	case GatewayRazorpay:
		if c.RazorpayKeyID == "" {
			errs.Add("RAZORPAY_KEY_ID", "is required")
		}
	case GatewayFake:
		if c.IsProduction() {
			errs.Add("PAYMENT_GATEWAY", "fake gateway is not allowed in production")
		}
	default:
		errs.Add("PAYMENT_GATEWAY", "must be razorpay or fake")
	}
	if c.RazorpayKeySecret == "" {
		errs.Add("RAZORPAY_KEY_SECRET", "is required")
	}
	if len(c.Currency) != 3 {
		errs.Add("CURRENCY", "must be a 3-letter ISO code")
	}

	if len(c.JWTSecret) < 16 {
		errs.Add("JWT_SECRET", "must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		errs.Add("JWT_TTL", "must be positive")
	}
	if len(c.SessionSecret) < 16 {
		errs.Add("SESSION_SECRET", "must be at least 16 characters")
	}
	if c.BreakerFailures == 0 {
		errs.Add("BREAKER_FAILURES", "must be positive")
	}

	if err := errs.Err(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// PostgresDSN returns DATABASE_URL or a DSN assembled from the DB_* variables.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// GoogleOAuthEnabled reports whether Google login is configured.
func (c *Config) GoogleOAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// Logger returns the logger settings.
func (c *Config) Logger() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Dir:     c.LogDir,
		Service: utils.AppName,
	}
}

// Email returns the SMTP settings.
func (c *Config) Email() utils.EmailConfig {
	return utils.EmailConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envParser collects parse errors so every bad variable is reported at once.
type envParser struct {
	errs utils.FieldValidationErrors
}

func (p *envParser) int(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		p.errs.Add(key, "must be a non-negative integer")
		return fallback
	}
	return v
}

func (p *envParser) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs.Add(key, "must be a duration such as 30s or 24h")
		return fallback
	}
	return v
}

func (p *envParser) Err() error {
	if err := p.errs.Err(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
