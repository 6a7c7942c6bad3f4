package dashboard

import (
	"html/template"
	"strconv"
	"time"

	"github.com/zulandar/gymyard/internal/chat"
)

const timeLayout = "2006-01-02 15:04"

var templateFuncs = template.FuncMap{
	"ts":       formatTime,
	"tsp":      formatTimePtr,
	"str":      derefString,
	"weight":   formatWeight,
	"count":    formatCount,
	"duration": sessionDuration,
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "in progress"
	}
	return formatTime(*t)
}

func derefString(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func formatWeight(w *float64) string {
	if w == nil {
		return "-"
	}
	return strconv.FormatFloat(*w, 'f', -1, 64)
}

func formatCount(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

// sessionDuration renders elapsed time for finished sessions only.
func sessionDuration(started time.Time, finished *time.Time) string {
	if finished == nil {
		return "-"
	}
	return chat.FormatDuration(finished.Sub(started))
}
