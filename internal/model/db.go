package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Content{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&Revision{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&ImageHash{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&ImageRef{}); err != nil {
		return err
	}

	return nil
}
