package tester

import (
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emrgen/contentstore/internal/model"
)

const (
	testPath = "../../.test/"
)

var (
	db *gorm.DB
)

func Setup() {
	RemoveTestDir()

	_ = os.Setenv("ENV", "test")

	err := os.MkdirAll(testPath+"db", os.ModePerm)
	if err != nil {
		panic(err)
	}

	err = os.MkdirAll(StorageRoot(), os.ModePerm)
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(testPath+"db/contentstore.db"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func StorageRoot() string {
	return testPath + "storage"
}

func RemoveTestDir() {
	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
}
