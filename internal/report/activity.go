package report

import (
	"time"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// ActivitySummary counts what happened across all users since a point in time.
type ActivitySummary struct {
	Since            time.Time
	SessionsStarted  int64
	SessionsFinished int64
	SetsLogged       int64
	ActiveUsers      int64
}

// Empty reports whether nothing happened in the window.
func (a ActivitySummary) Empty() bool {
	return a.SessionsStarted == 0 && a.SessionsFinished == 0 && a.SetsLogged == 0
}

// Activity aggregates session and set activity since the given time.
// Sets carry no timestamp, so SetsLogged counts sets of sessions started in
// the window.
func Activity(db *gorm.DB, since time.Time) (*ActivitySummary, error) {
	a := ActivitySummary{Since: since}
	if err := db.Model(&models.Session{}).
		Where("started_at >= ?", since).
		Count(&a.SessionsStarted).Error; err != nil {
		return nil, apperr.Storage("report: activity started", err)
	}
	if err := db.Model(&models.Session{}).
		Where("finished_at IS NOT NULL AND finished_at >= ?", since).
		Count(&a.SessionsFinished).Error; err != nil {
		return nil, apperr.Storage("report: activity finished", err)
	}
	if err := db.Model(&models.Set{}).
		Joins("JOIN sessions ON sessions.id = sets.session_id").
		Where("sessions.started_at >= ?", since).
		Count(&a.SetsLogged).Error; err != nil {
		return nil, apperr.Storage("report: activity sets", err)
	}
	if err := db.Model(&models.Session{}).
		Where("started_at >= ?", since).
		Distinct("user_id").
		Count(&a.ActiveUsers).Error; err != nil {
		return nil, apperr.Storage("report: activity users", err)
	}
	return &a, nil
}
