// Package catalog manages a user's routines and exercises and the ordered
// membership between them. Every operation is scoped to the owning user.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/models"
	"github.com/zulandar/gymyard/internal/report"
	"gorm.io/gorm"
)

// RoutineDetail is a routine, its exercises in routine order, and a summary
// of the owner's most recent session of it.
type RoutineDetail struct {
	Routine     models.Routine
	Exercises   []report.RoutineExercise
	LastSession *report.SessionSummary
}

// CreateRoutine creates a routine owned by userID.
func CreateRoutine(db *gorm.DB, userID, name string) (*models.Routine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("catalog: routine name is required")
	}
	if userID == "" {
		return nil, apperr.Validation("catalog: user id is required")
	}

	r := models.Routine{UserID: userID, Name: name}
	if err := db.Create(&r).Error; err != nil {
		return nil, apperr.Storage("catalog: create routine", err)
	}
	return &r, nil
}

// ListRoutines returns the user's routines, newest first.
func ListRoutines(db *gorm.DB, userID string) ([]models.Routine, error) {
	var routines []models.Routine
	if err := db.Where("user_id = ?", userID).Order("id DESC").Find(&routines).Error; err != nil {
		return nil, apperr.Storage("catalog: list routines", err)
	}
	return routines, nil
}

// GetRoutine returns the routine if it is owned by userID.
func GetRoutine(db *gorm.DB, userID string, routineID uint) (*models.Routine, error) {
	var r models.Routine
	err := db.Where("id = ? AND user_id = ?", routineID, userID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("routine", routineID)
		}
		return nil, apperr.Storage(fmt.Sprintf("catalog: get routine %d", routineID), err)
	}
	return &r, nil
}

// DeleteRoutine removes the routine and its exercise links. Exercises and
// sessions that reference the routine are left in place.
func DeleteRoutine(db *gorm.DB, userID string, routineID uint) error {
	if _, err := GetRoutine(db, userID, routineID); err != nil {
		return err
	}
	if err := db.Where("routine_id = ?", routineID).Delete(&models.RoutineExercise{}).Error; err != nil {
		return apperr.Storage("catalog: delete routine links", err)
	}
	if err := db.Where("id = ? AND user_id = ?", routineID, userID).Delete(&models.Routine{}).Error; err != nil {
		return apperr.Storage(fmt.Sprintf("catalog: delete routine %d", routineID), err)
	}
	return nil
}

// GetRoutineDetail returns the routine with its exercises and the summary of
// the most recent session the user performed with it.
func GetRoutineDetail(db *gorm.DB, userID string, routineID uint) (*RoutineDetail, error) {
	r, err := GetRoutine(db, userID, routineID)
	if err != nil {
		return nil, err
	}
	exercises, err := report.RoutineExercises(db, routineID)
	if err != nil {
		return nil, err
	}
	last, err := report.LastSession(db, userID, routineID)
	if err != nil {
		return nil, err
	}
	return &RoutineDetail{Routine: *r, Exercises: exercises, LastSession: last}, nil
}
