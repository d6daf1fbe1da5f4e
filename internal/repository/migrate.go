package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nicoceron/nimble-backend/internal/model"
)

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Task{}, &model.Activity{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
