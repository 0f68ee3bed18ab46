package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/autopec/garage/internal/config"
	"github.com/autopec/garage/internal/db"
	"github.com/autopec/garage/internal/middleware"
	"github.com/autopec/garage/internal/repository"
	"github.com/autopec/garage/internal/service"
	"github.com/autopec/garage/internal/storage"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	MediaStore    storage.MediaStore
	RepairService *service.RepairService
	SubmitLimiter *middleware.RateLimiter
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Media storage
	mediaStore, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	// Repositories
	repairRepository := repository.NewRepairRepository(database)

	// Services
	repairService := service.NewRepairService(repairRepository, mediaStore, cfg.UploadPolicy())

	return &App{
		Cfg:           cfg,
		DB:            database,
		MediaStore:    mediaStore,
		RepairService: repairService,
		SubmitLimiter: middleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow),
	}, nil
}

func (a *App) Close() error {
	if a.SubmitLimiter != nil {
		a.SubmitLimiter.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
