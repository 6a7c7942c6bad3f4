package db

import (
	"fmt"

	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model that makes up the gymyard schema.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Routine{},
		&models.Exercise{},
		&models.RoutineExercise{},
		&models.Session{},
		&models.Set{},
		&models.BotLease{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
