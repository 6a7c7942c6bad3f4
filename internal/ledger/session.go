// Package ledger records training sessions and the sets logged in them.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// now is replaced in tests.
var now = time.Now

// StartSession opens a session of routineID for the user. The routine is
// not checked: sessions may outlive or predate the routine they name.
func StartSession(db *gorm.DB, userID string, routineID uint) (*models.Session, error) {
	if userID == "" {
		return nil, apperr.Validation("ledger: user id is required")
	}
	s := models.Session{
		RoutineID: routineID,
		UserID:    userID,
		StartedAt: now(),
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, apperr.Storage("ledger: start session", err)
	}
	return &s, nil
}

// GetSession returns the session if it is owned by userID.
func GetSession(db *gorm.DB, userID string, sessionID uint) (*models.Session, error) {
	var s models.Session
	err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session", sessionID)
		}
		return nil, apperr.Storage(fmt.Sprintf("ledger: get session %d", sessionID), err)
	}
	return &s, nil
}

// FinishSession stamps finished_at on the caller's session. A session that
// does not exist or belongs to someone else yields ErrNotFound and is left
// unchanged. Finishing twice moves finished_at forward.
func FinishSession(db *gorm.DB, userID string, sessionID uint) (*models.Session, error) {
	result := db.Model(&models.Session{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Update("finished_at", now())
	if result.Error != nil {
		return nil, apperr.Storage(fmt.Sprintf("ledger: finish session %d", sessionID), result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("session", sessionID)
	}
	return GetSession(db, userID, sessionID)
}
