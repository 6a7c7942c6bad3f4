// Package report implements the read side: session detail grouped by
// exercise, history, routine summaries and the unscoped listings that back
// the web dashboard.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/models"
	"gorm.io/gorm"
)

// DefaultHistoryLimit is used when History is called with a non-positive limit.
const DefaultHistoryLimit = 10

// MissingName is displayed in place of a deleted exercise or routine.
const MissingName = "-"

// SetRow is a logged set joined with its exercise name. ExerciseName is nil
// when the exercise has been deleted.
type SetRow struct {
	ID              uint
	SessionID       uint
	ExerciseID      uint
	SetIndex        int
	Weight          *float64
	Reps            *int
	DurationSeconds *int
	ExerciseName    *string
}

// Name returns the exercise name or MissingName.
func (r SetRow) Name() string {
	if r.ExerciseName == nil || *r.ExerciseName == "" {
		return MissingName
	}
	return *r.ExerciseName
}

// ExerciseGroup is the sets of one exercise within a session.
type ExerciseGroup struct {
	Name string
	Sets []SetRow
}

// SessionDetail is a session with its sets grouped per exercise.
type SessionDetail struct {
	Session models.Session
	Rows    []SetRow
	Groups  []ExerciseGroup
}

// SetCount returns the number of sets logged in the session.
func (d SessionDetail) SetCount() int {
	return len(d.Rows)
}

// SessionSummary is the short form of a session shown in routine detail.
type SessionSummary struct {
	Session   models.Session
	SetCount  int64
	Exercises int64
}

// GroupSets buckets rows by exercise name, keeping the order in which each
// name first appears. Sets within a bucket are sorted by set index, since
// two exercises may share a name.
func GroupSets(rows []SetRow) []ExerciseGroup {
	var groups []ExerciseGroup
	index := make(map[string]int)
	for _, r := range rows {
		name := r.Name()
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, ExerciseGroup{Name: name})
		}
		groups[i].Sets = append(groups[i].Sets, r)
	}
	for _, g := range groups {
		sort.SliceStable(g.Sets, func(a, b int) bool {
			return g.Sets[a].SetIndex < g.Sets[b].SetIndex
		})
	}
	return groups
}

// GetSessionDetail returns the caller's session with its sets ordered by
// (exercise_id, set_index) and grouped per exercise.
func GetSessionDetail(db *gorm.DB, userID string, sessionID uint) (*SessionDetail, error) {
	var s models.Session
	err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session", sessionID)
		}
		return nil, apperr.Storage(fmt.Sprintf("report: session %d", sessionID), err)
	}

	rows, err := setRows(db, sessionID, "sets.exercise_id ASC, sets.set_index ASC")
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: s, Rows: rows, Groups: GroupSets(rows)}, nil
}

// History returns the caller's most recent sessions, newest first.
func History(db *gorm.DB, userID string, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var sessions []models.Session
	err := db.Where("user_id = ?", userID).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, apperr.Storage("report: history", err)
	}
	return sessions, nil
}

// LastSession summarises the caller's most recent session of a routine.
// It returns nil, nil when the routine has never been performed.
func LastSession(db *gorm.DB, userID string, routineID uint) (*SessionSummary, error) {
	var sessions []models.Session
	err := db.Where("user_id = ? AND routine_id = ?", userID, routineID).
		Order("started_at DESC, id DESC").
		Limit(1).
		Find(&sessions).Error
	if err != nil {
		return nil, apperr.Storage(fmt.Sprintf("report: last session for routine %d", routineID), err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	sum := &SessionSummary{Session: sessions[0]}
	if err := db.Model(&models.Set{}).
		Where("session_id = ?", sum.Session.ID).
		Count(&sum.SetCount).Error; err != nil {
		return nil, apperr.Storage("report: count sets", err)
	}
	if err := db.Model(&models.Set{}).
		Where("session_id = ?", sum.Session.ID).
		Distinct("exercise_id").
		Count(&sum.Exercises).Error; err != nil {
		return nil, apperr.Storage("report: count exercises", err)
	}
	return sum, nil
}

// Duration returns how long a finished session lasted, or zero.
func Duration(s models.Session) time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func setRows(db *gorm.DB, sessionID uint, order string) ([]SetRow, error) {
	var rows []SetRow
	err := db.Table("sets").
		Select("sets.id, sets.session_id, sets.exercise_id, sets.set_index, sets.weight, sets.reps, sets.duration_seconds, exercises.name AS exercise_name").
		Joins("LEFT JOIN exercises ON exercises.id = sets.exercise_id").
		Where("sets.session_id = ?", sessionID).
		Order(order).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Storage(fmt.Sprintf("report: sets for session %d", sessionID), err)
	}
	return rows, nil
}
