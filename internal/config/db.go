package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GetDB opens the configured database connection.
func GetDB(cfg *Config) *gorm.DB {
	var db *gorm.DB
	var err error

	switch cfg.DB.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	default:
		if dir := filepath.Dir(cfg.DB.DSN); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				logrus.Fatalf("error creating database directory: %v", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.DB.DSN), &gorm.Config{})
	}
	if err != nil {
		logrus.Fatalf("error connecting to database: %v", err)
	}

	return db
}
