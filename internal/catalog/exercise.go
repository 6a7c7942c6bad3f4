package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// AddExerciseOpts holds parameters for adding an exercise to a routine.
type AddExerciseOpts struct {
	UserID      string
	RoutineID   uint
	Name        string
	Equipment   string
	DefaultReps string
}

// AddExercise creates a new exercise owned by the user and links it to the
// end of the routine. A new row is created even when the user already has
// an exercise with the same name.
func AddExercise(db *gorm.DB, opts AddExerciseOpts) (*models.Exercise, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, apperr.Validation("catalog: exercise name is required")
	}
	if _, err := GetRoutine(db, opts.UserID, opts.RoutineID); err != nil {
		return nil, err
	}

	e := models.Exercise{
		UserID:      opts.UserID,
		Name:        name,
		Equipment:   optional(opts.Equipment),
		DefaultReps: optional(opts.DefaultReps),
	}
	if err := db.Create(&e).Error; err != nil {
		return nil, apperr.Storage("catalog: create exercise", err)
	}

	var links int64
	if err := db.Model(&models.RoutineExercise{}).
		Where("routine_id = ?", opts.RoutineID).
		Count(&links).Error; err != nil {
		return nil, apperr.Storage("catalog: count routine links", err)
	}
	link := models.RoutineExercise{
		RoutineID:  opts.RoutineID,
		ExerciseID: e.ID,
		Position:   int(links) + 1,
	}
	if err := db.Create(&link).Error; err != nil {
		return nil, apperr.Storage("catalog: link exercise", err)
	}
	return &e, nil
}

// ListExercises returns the user's exercises, newest first.
func ListExercises(db *gorm.DB, userID string) ([]models.Exercise, error) {
	var exercises []models.Exercise
	if err := db.Where("user_id = ?", userID).Order("id DESC").Find(&exercises).Error; err != nil {
		return nil, apperr.Storage("catalog: list exercises", err)
	}
	return exercises, nil
}

// GetExercise returns the exercise if it is owned by userID.
func GetExercise(db *gorm.DB, userID string, exerciseID uint) (*models.Exercise, error) {
	var e models.Exercise
	err := db.Where("id = ? AND user_id = ?", exerciseID, userID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("exercise", exerciseID)
		}
		return nil, apperr.Storage(fmt.Sprintf("catalog: get exercise %d", exerciseID), err)
	}
	return &e, nil
}

// DeleteExercise removes the exercise, its routine links and every set
// logged against it.
func DeleteExercise(db *gorm.DB, userID string, exerciseID uint) error {
	if _, err := GetExercise(db, userID, exerciseID); err != nil {
		return err
	}
	if err := db.Where("exercise_id = ?", exerciseID).Delete(&models.RoutineExercise{}).Error; err != nil {
		return apperr.Storage("catalog: delete exercise links", err)
	}
	if err := db.Where("exercise_id = ?", exerciseID).Delete(&models.Set{}).Error; err != nil {
		return apperr.Storage("catalog: delete exercise sets", err)
	}
	if err := db.Where("id = ? AND user_id = ?", exerciseID, userID).Delete(&models.Exercise{}).Error; err != nil {
		return apperr.Storage(fmt.Sprintf("catalog: delete exercise %d", exerciseID), err)
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
