package ledger

import (
	"fmt"

	"github.com/zulandar/gymyard/internal/apperr"
	gymdb "github.com/zulandar/gymyard/internal/db"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// maxSetRetries bounds how often LogSet retries after losing a set_index
// race to a concurrent insert.
const maxSetRetries = 5

// LogSetOpts holds parameters for logging a set.
type LogSetOpts struct {
	UserID          string
	SessionID       uint
	ExerciseID      uint
	Weight          *float64
	Reps            *int
	DurationSeconds *int
}

// LogSet appends a set to the caller's session. The set is numbered with the
// next set_index of the session, counting all exercises together. Numbering
// continues past gaps left by deleted sets, so an index is never reused.
// Both the session and the exercise must belong to the caller.
func LogSet(db *gorm.DB, opts LogSetOpts) (*models.Set, error) {
	if opts.Reps != nil && *opts.Reps < 0 {
		return nil, apperr.Validation("ledger: reps must not be negative")
	}
	if opts.DurationSeconds != nil && *opts.DurationSeconds < 0 {
		return nil, apperr.Validation("ledger: duration must not be negative")
	}
	if _, err := GetSession(db, opts.UserID, opts.SessionID); err != nil {
		return nil, err
	}
	if err := ownsExercise(db, opts.UserID, opts.ExerciseID); err != nil {
		return nil, err
	}

	var (
		set *models.Set
		err error
	)
	for attempt := 0; attempt < maxSetRetries; attempt++ {
		set, err = insertSet(db, opts)
		if err == nil {
			return set, nil
		}
		if !gymdb.IsDuplicateKey(err) {
			return nil, apperr.Storage("ledger: log set", err)
		}
	}
	return nil, apperr.Storage(fmt.Sprintf("ledger: log set after %d attempts", maxSetRetries), err)
}

// NextSetIndex returns the index the next set of the session would receive.
func NextSetIndex(db *gorm.DB, sessionID uint) (int, error) {
	var last int
	err := db.Model(&models.Set{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(set_index), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func insertSet(db *gorm.DB, opts LogSetOpts) (*models.Set, error) {
	var set models.Set
	err := db.Transaction(func(tx *gorm.DB) error {
		next, err := NextSetIndex(tx, opts.SessionID)
		if err != nil {
			return err
		}
		set = models.Set{
			SessionID:       opts.SessionID,
			ExerciseID:      opts.ExerciseID,
			SetIndex:        next,
			Weight:          opts.Weight,
			Reps:            opts.Reps,
			DurationSeconds: opts.DurationSeconds,
		}
		return tx.Create(&set).Error
	})
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func ownsExercise(db *gorm.DB, userID string, exerciseID uint) error {
	var count int64
	err := db.Model(&models.Exercise{}).
		Where("id = ? AND user_id = ?", exerciseID, userID).
		Count(&count).Error
	if err != nil {
		return apperr.Storage(fmt.Sprintf("ledger: get exercise %d", exerciseID), err)
	}
	if count == 0 {
		return apperr.NotFound("exercise", exerciseID)
	}
	return nil
}
