package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/gymyard/internal/catalog"
	"github.com/zulandar/gymyard/internal/models"
	"github.com/zulandar/gymyard/internal/report"
)

// timeLayout is used for every timestamp shown in chat.
const timeLayout = "2006-01-02 15:04"

func helpText(firstName string) string {
	var b strings.Builder
	if firstName != "" {
		fmt.Fprintf(&b, "Hey %s! Let's train.\n\n", firstName)
	}
	b.WriteString("Available commands:\n")
	for _, line := range []string{
		usageNewRoutine + " - create a routine",
		"/listroutines - list your routines",
		usageDeleteRoutine + " - delete a routine",
		usageAddExercise + " - add an exercise to a routine",
		"/listexercises - list your exercises",
		usageDeleteExercise + " - delete an exercise and its sets",
		usageStartRoutine + " - start a session",
		usageLogSet + " - log a set",
		usageFinishSession + " - finish a session",
		usageSession + " - show a session",
		usageRoutineDetails + " - show a routine",
		usageMyHistory + " - recent sessions",
	} {
		b.WriteString("• " + line + "\n")
	}
	fmt.Fprintf(&b, "\nOn Slack and Discord use %q instead of \"/\", e.g. \"%s listroutines\".", commandPrefix+" ", commandPrefix)
	return b.String()
}

// FormatRoutines renders the /listroutines reply.
func FormatRoutines(routines []models.Routine) string {
	if len(routines) == 0 {
		return "You have no routines yet. Use /newroutine."
	}
	var b strings.Builder
	b.WriteString("Your routines:\n")
	for _, r := range routines {
		fmt.Fprintf(&b, "• ID %d: %s\n", r.ID, r.Name)
	}
	return b.String()
}

// FormatExercises renders the /listexercises reply.
func FormatExercises(exercises []models.Exercise) string {
	if len(exercises) == 0 {
		return "You have no exercises yet. Use /addroutineexercise."
	}
	var b strings.Builder
	b.WriteString("Your exercises:\n")
	for _, e := range exercises {
		fmt.Fprintf(&b, "• ID %d: %s%s\n", e.ID, e.Name, exerciseExtras(e))
	}
	return b.String()
}

// FormatExerciseAdded renders the /addroutineexercise reply.
func FormatExerciseAdded(routineID uint, e *models.Exercise) string {
	return fmt.Sprintf("Exercise added to routine %d:\n• Name: %s\n• Equipment: %s\n• Default reps: %s\n• Exercise ID: %d",
		routineID, e.Name, orDash(e.Equipment), orDash(e.DefaultReps), e.ID)
}

// FormatSetLogged renders the /logset reply.
func FormatSetLogged(s *models.Set) string {
	var b strings.Builder
	b.WriteString("Set logged!\n")
	fmt.Fprintf(&b, "• Session: %d\n", s.SessionID)
	fmt.Fprintf(&b, "• Exercise: %d\n", s.ExerciseID)
	fmt.Fprintf(&b, "• Set: #%d\n", s.SetIndex)
	fmt.Fprintf(&b, "• Weight: %s\n", formatWeight(s.Weight))
	fmt.Fprintf(&b, "• Reps: %s\n", formatInt(s.Reps))
	if s.DurationSeconds != nil {
		fmt.Fprintf(&b, "• Duration: %ds\n", *s.DurationSeconds)
	}
	return b.String()
}

// FormatSet renders one set as "S3: 60kg × 8 (30s)".
func FormatSet(r report.SetRow) string {
	s := fmt.Sprintf("S%d: %skg × %s", r.SetIndex, formatWeight(r.Weight), formatInt(r.Reps))
	if r.DurationSeconds != nil {
		s += fmt.Sprintf(" (%ds)", *r.DurationSeconds)
	}
	return s
}

// FormatSessionDetail renders the /session reply with sets grouped per
// exercise.
func FormatSessionDetail(d *report.SessionDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %d\n", d.Session.ID)
	fmt.Fprintf(&b, "Started: %s\n", d.Session.StartedAt.Format(timeLayout))
	fmt.Fprintf(&b, "Finished: %s\n", formatTime(d.Session.FinishedAt))
	if len(d.Groups) == 0 {
		b.WriteString("\nNo sets logged yet.")
		return b.String()
	}
	b.WriteString("\n")
	for _, g := range d.Groups {
		sets := make([]string, len(g.Sets))
		for i, r := range g.Sets {
			sets[i] = FormatSet(r)
		}
		fmt.Fprintf(&b, "• %s\n   %s\n", g.Name, strings.Join(sets, " | "))
	}
	return b.String()
}

// FormatRoutineDetail renders the /routinedetails reply.
func FormatRoutineDetail(d *catalog.RoutineDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Routine %d: %s\n\n", d.Routine.ID, d.Routine.Name)
	if len(d.Exercises) == 0 {
		b.WriteString("No exercises yet.\n")
	} else {
		b.WriteString("Exercises:\n")
		for i, e := range d.Exercises {
			fmt.Fprintf(&b, "%d. %s%s (ID %d)\n", i+1, e.Name, exerciseExtras(e.Exercise), e.ID)
		}
	}
	b.WriteString("\n")
	if d.LastSession == nil {
		b.WriteString("Not performed yet.")
		return b.String()
	}
	last := d.LastSession
	state := "in progress"
	if last.Session.Finished() {
		state = "finished in " + FormatDuration(report.Duration(last.Session))
	}
	fmt.Fprintf(&b, "Last session: #%d on %s, %d sets across %d exercises (%s)",
		last.Session.ID, last.Session.StartedAt.Format(timeLayout), last.SetCount, last.Exercises, state)
	return b.String()
}

// FormatHistory renders the /myhistory reply.
func FormatHistory(sessions []models.Session) string {
	if len(sessions) == 0 {
		return "You have not logged any sessions yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last %d sessions:\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(&b, "• ID %d: started %s, finished %s\n",
			s.ID, s.StartedAt.Format(timeLayout), formatTime(s.FinishedAt))
	}
	return b.String()
}

// FormatDigest renders the periodic activity digest.
func FormatDigest(a *report.ActivitySummary) string {
	return fmt.Sprintf("Gym activity since %s\n• Sessions started: %d\n• Sessions finished: %d\n• Sets logged: %d\n• Active users: %d",
		a.Since.Format(timeLayout), a.SessionsStarted, a.SessionsFinished, a.SetsLogged, a.ActiveUsers)
}

// FormatDuration renders a duration as "1h05m" or "42m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func exerciseExtras(e models.Exercise) string {
	var parts []string
	if e.Equipment != nil {
		parts = append(parts, *e.Equipment)
	}
	if e.DefaultReps != nil {
		parts = append(parts, *e.DefaultReps+" reps")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func formatWeight(w *float64) string {
	if w == nil {
		return report.MissingName
	}
	return strconv.FormatFloat(*w, 'f', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return report.MissingName
	}
	return strconv.Itoa(*n)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return report.MissingName
	}
	return t.Format(timeLayout)
}

func orDash(s *string) string {
	if s == nil {
		return report.MissingName
	}
	return *s
}

// SplitText breaks text into chunks of at most limit runes, preferring to
// cut after a newline. Platforms with a message length cap send each chunk
// as its own message.
func SplitText(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
