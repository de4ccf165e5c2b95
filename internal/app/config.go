package app

import (
	"github.com/vistoriatec/vistoria-backend/internal/logger"
	"github.com/vistoriatec/vistoria-backend/internal/utils"
)

type Config struct {
	DBPath            string
	PhotosDir         string
	ReportsDir        string
	CatalogPath       string
	WarningWindowDays int
}

func LoadConfig(log *logger.Logger) Config {
	dbPath := utils.GetEnv("DB_PATH", "inspecoes.db", log)
	photosDir := utils.GetEnv("PHOTOS_DIR", "fotos_inspecoes", log)
	reportsDir := utils.GetEnv("REPORTS_DIR", "relatorios", log)
	catalogPath := utils.GetEnv("CATALOG_PATH", "", log)
	warningWindowDays := utils.GetEnvAsInt("WARNING_WINDOW_DAYS", 30, log)
	return Config{
		DBPath:            dbPath,
		PhotosDir:         photosDir,
		ReportsDir:        reportsDir,
		CatalogPath:       catalogPath,
		WarningWindowDays: warningWindowDays,
	}
}
