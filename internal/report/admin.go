package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// The reads in this file are not scoped to a user. They back the
// administrative dashboard only.

// Counts holds the dashboard totals.
type Counts struct {
	Users    int64
	Routines int64
	Sessions int64
}

// RoutineRow is a routine joined with its owner's username and the number
// of linked exercises.
type RoutineRow struct {
	ID            uint
	UserID        string
	Name          string
	CreatedAt     time.Time
	Username      *string
	ExerciseCount int64
}

// SessionRow is a session joined with its owner's username and routine name.
// Either may be nil when the referenced row is gone.
type SessionRow struct {
	ID          uint
	RoutineID   uint
	UserID      string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Username    *string
	RoutineName *string
}

// Finished reports whether the session has been closed.
func (r SessionRow) Finished() bool {
	return r.FinishedAt != nil
}

// UserView is one user with everything they own.
type UserView struct {
	User     models.User
	Routines []models.Routine
	Sessions []models.Session
}

// RoutineExercise is an exercise as it appears within a routine.
type RoutineExercise struct {
	models.Exercise
	Position int
}

// RoutineView is a routine with its exercises in routine order.
type RoutineView struct {
	Routine   models.Routine
	Owner     *models.User
	Exercises []RoutineExercise
}

// SessionView is a session with its sets in logging order and grouped
// per exercise.
type SessionView struct {
	Session SessionRow
	Sets    []SetRow
	Groups  []ExerciseGroup
}

// GetCounts returns the system-wide user, routine and session totals.
func GetCounts(db *gorm.DB) (*Counts, error) {
	var c Counts
	if err := db.Model(&models.User{}).Count(&c.Users).Error; err != nil {
		return nil, apperr.Storage("report: count users", err)
	}
	if err := db.Model(&models.Routine{}).Count(&c.Routines).Error; err != nil {
		return nil, apperr.Storage("report: count routines", err)
	}
	if err := db.Model(&models.Session{}).Count(&c.Sessions).Error; err != nil {
		return nil, apperr.Storage("report: count sessions", err)
	}
	return &c, nil
}

// ListUsers returns every user, oldest first.
func ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, apperr.Storage("report: list users", err)
	}
	return users, nil
}

// UserDetail returns a user with their routines and sessions.
func UserDetail(db *gorm.DB, id string) (*UserView, error) {
	var v UserView
	if err := db.Where("id = ?", id).First(&v.User).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, apperr.Storage(fmt.Sprintf("report: user %s", id), err)
	}
	if err := db.Where("user_id = ?", id).Order("id DESC").Find(&v.Routines).Error; err != nil {
		return nil, apperr.Storage("report: user routines", err)
	}
	if err := db.Where("user_id = ?", id).Order("started_at DESC, id DESC").Find(&v.Sessions).Error; err != nil {
		return nil, apperr.Storage("report: user sessions", err)
	}
	return &v, nil
}

// ListRoutines returns every routine with its owner and exercise count,
// newest first.
func ListRoutines(db *gorm.DB) ([]RoutineRow, error) {
	var rows []RoutineRow
	err := db.Table("routines").
		Select("routines.id, routines.user_id, routines.name, routines.created_at, users.username, COUNT(routine_exercises.exercise_id) AS exercise_count").
		Joins("LEFT JOIN users ON users.id = routines.user_id").
		Joins("LEFT JOIN routine_exercises ON routine_exercises.routine_id = routines.id").
		Group("routines.id, routines.user_id, routines.name, routines.created_at, users.username").
		Order("routines.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Storage("report: list routines", err)
	}
	return rows, nil
}

// AdminRoutineDetail returns any routine and its exercises ordered by position.
func AdminRoutineDetail(db *gorm.DB, id uint) (*RoutineView, error) {
	var v RoutineView
	if err := db.Where("id = ?", id).First(&v.Routine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("routine", id)
		}
		return nil, apperr.Storage(fmt.Sprintf("report: routine %d", id), err)
	}

	var owner []models.User
	if err := db.Where("id = ?", v.Routine.UserID).Limit(1).Find(&owner).Error; err != nil {
		return nil, apperr.Storage("report: routine owner", err)
	}
	if len(owner) == 1 {
		v.Owner = &owner[0]
	}

	exercises, err := RoutineExercises(db, id)
	if err != nil {
		return nil, err
	}
	v.Exercises = exercises
	return &v, nil
}

// RoutineExercises returns the exercises linked to a routine ordered by
// position, then exercise id.
func RoutineExercises(db *gorm.DB, routineID uint) ([]RoutineExercise, error) {
	var rows []RoutineExercise
	err := db.Table("routine_exercises").
		Select("exercises.*, routine_exercises.position").
		Joins("JOIN exercises ON exercises.id = routine_exercises.exercise_id").
		Where("routine_exercises.routine_id = ?", routineID).
		Order("routine_exercises.position ASC, exercises.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Storage(fmt.Sprintf("report: exercises for routine %d", routineID), err)
	}
	return rows, nil
}

// ListSessions returns every session with owner and routine names, newest
// first.
func ListSessions(db *gorm.DB) ([]SessionRow, error) {
	return RecentSessions(db, 0)
}

// RecentSessions returns at most limit sessions, newest first. A
// non-positive limit returns all of them.
func RecentSessions(db *gorm.DB, limit int) ([]SessionRow, error) {
	q := sessionRows(db).Order("sessions.started_at DESC, sessions.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []SessionRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperr.Storage("report: list sessions", err)
	}
	return rows, nil
}

// AdminSessionDetail returns any session with its sets in set_index order.
func AdminSessionDetail(db *gorm.DB, id uint) (*SessionView, error) {
	var rows []SessionRow
	if err := sessionRows(db).Where("sessions.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, apperr.Storage(fmt.Sprintf("report: session %d", id), err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("session", id)
	}

	sets, err := setRows(db, id, "sets.set_index ASC")
	if err != nil {
		return nil, err
	}
	return &SessionView{Session: rows[0], Sets: sets, Groups: GroupSets(sets)}, nil
}

func sessionRows(db *gorm.DB) *gorm.DB {
	return db.Table("sessions").
		Select("sessions.id, sessions.routine_id, sessions.user_id, sessions.started_at, sessions.finished_at, users.username, routines.name AS routine_name").
		Joins("LEFT JOIN users ON users.id = sessions.user_id").
		Joins("LEFT JOIN routines ON routines.id = sessions.routine_id")
}
