package models

import "time"

// Routine is a named, user-owned workout template.
type Routine struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:64;not null;index"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
}

// RoutineExercise links an exercise to a routine. Position orders the
// exercises within the routine.
type RoutineExercise struct {
	RoutineID  uint `gorm:"primaryKey;autoIncrement:false"`
	ExerciseID uint `gorm:"primaryKey;autoIncrement:false;index"`
	Position   int  `gorm:"default:0"`
}
