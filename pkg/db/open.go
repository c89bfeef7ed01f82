package db

import (
	"github.com/bazimogmbh/easypurchase/internal/config"
	obslogger "github.com/bazimogmbh/easypurchase/internal/observability/logger"
	"gorm.io/gorm"
)

// Open builds a *gorm.DB for the configured SQL backend.
func Open(cfg config.StoreConfig) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig()),
	})
}
