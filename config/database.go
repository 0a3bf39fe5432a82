package config

import (
	"context"
	"fmt"
	"time"

	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenStore connects the configured storage driver and prepares its schema.
func OpenStore(ctx context.Context, cfg *Config) (store.Store, error) {
	switch cfg.DBDriver {
	case DriverPostgres:
		return openPostgres(cfg)
	case DriverMongo:
		s, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		utils.LogInfo("Connected to MongoDB database %s", cfg.MongoDB)
		return s, nil
	case DriverMemory:
		utils.LogWarn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

func openPostgres(cfg *Config) (*store.GormStore, error) {
	logLevel := logger.Warn
	if cfg.LogLevel == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	s := store.NewGormStore(db)
	if err := s.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	utils.LogInfo("Connected to PostgreSQL database %s", cfg.DBName)
	return s, nil
}
