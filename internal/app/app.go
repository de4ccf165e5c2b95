package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/vistoriatec/vistoria-backend/internal/catalog"
	"github.com/vistoriatec/vistoria-backend/internal/db"
	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/repos"
	"github.com/vistoriatec/vistoria-backend/internal/services"
)

type Repos struct {
	Inspections repos.InspectionRepo
	Changes     repos.InspectionChangeRepo
}

type Services struct {
	Records services.RecordService
	Photos  services.PhotoService
	Reports services.ReportService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Catalog  *catalog.Catalog
	Repos    Repos
	Services Services

	sqlite *db.SQLiteService
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		log.Info("Catalog loaded from file", "path", cfg.CatalogPath)
	}

	sqliteService, err := db.NewSQLiteService(cfg.DBPath, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	if err := sqliteService.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("sqlite automigrate: %w", err)
	}
	theDB := sqliteService.DB()

	reposet := Repos{
		Inspections: repos.NewInspectionRepo(theDB, log),
		Changes:     repos.NewInspectionChangeRepo(theDB, log),
	}

	photoService, err := services.NewPhotoService(cfg.PhotosDir, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init photo service: %w", err)
	}
	reportService, err := services.NewReportService(cfg.ReportsDir, log, photoService)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init report service: %w", err)
	}
	recordService := services.NewRecordService(
		theDB, log, cat,
		reposet.Inspections, reposet.Changes,
		photoService, cfg.WarningWindowDays,
	)

	return &App{
		Log:     log,
		DB:      theDB,
		Cfg:     cfg,
		Catalog: cat,
		Repos:   reposet,
		Services: Services{
			Records: recordService,
			Photos:  photoService,
			Reports: reportService,
		},
		sqlite: sqliteService,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			a.Log.Warn("Failed to close database", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
