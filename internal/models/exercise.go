package models

import "time"

// Exercise is a user-owned movement definition. DefaultReps is advisory only.
type Exercise struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	UserID      string  `gorm:"size:64;not null;index"`
	Name        string  `gorm:"size:255;not null"`
	Equipment   *string `gorm:"size:255"`
	DefaultReps *string `gorm:"size:32"`
	CreatedAt   time.Time
}
