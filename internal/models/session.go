package models

import "time"

// Session is one performance of a routine. RoutineID is not a foreign key:
// the routine may have been deleted since.
type Session struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	RoutineID  uint      `gorm:"index"`
	UserID     string    `gorm:"size:64;not null;index"`
	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt *time.Time
}

// Finished reports whether the session has been closed.
func (s Session) Finished() bool {
	return s.FinishedAt != nil
}

// Set is one logged unit of work within a session. SetIndex is a running
// counter across the whole session, not per exercise.
type Set struct {
	ID              uint `gorm:"primaryKey;autoIncrement"`
	SessionID       uint `gorm:"not null;uniqueIndex:idx_sets_session_index,priority:1"`
	ExerciseID      uint `gorm:"not null;index"`
	SetIndex        int  `gorm:"not null;uniqueIndex:idx_sets_session_index,priority:2"`
	Weight          *float64
	Reps            *int
	DurationSeconds *int
}
