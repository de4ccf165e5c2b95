package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/types"
)

type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(path string, log *logger.Logger) (*SQLiteService, error) {
	serviceLog := log.With("service", "SQLiteService")

	serviceLog.Info("Opening SQLite database...", "path", path)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		serviceLog.Error("Failed to open SQLite database", "error", err)
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	if err := db.Exec(`PRAGMA foreign_keys = ON`).Error; err != nil {
		serviceLog.Error("Failed to enable foreign keys", "error", err)
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) AutoMigrateAll() error {
	s.log.Info("Auto migrating sqlite tables...")
	err := s.db.AutoMigrate(
		&types.InspectionRecord{},
		&types.InspectionChange{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for sqlite tables", "error", err)
		return err
	}
	return nil
}

func (s *SQLiteService) DB() *gorm.DB {
	return s.db
}

func (s *SQLiteService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
