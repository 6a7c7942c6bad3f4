package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/gymyard/internal/apperr"
)

// Usage lines, one per command taking arguments.
const (
	usageNewRoutine     = "/newroutine <name>"
	usageDeleteRoutine  = "/deleteroutine <routine_id>"
	usageAddExercise    = "/addroutineexercise <routine_id>|<name>|<equipment>|<default_reps>"
	usageDeleteExercise = "/deleteexercise <exercise_id>"
	usageStartRoutine   = "/startroutine <routine_id>"
	usageLogSet         = "/logset <session_id>|<exercise_id>|<weight>|<reps>|[duration_seconds]"
	usageFinishSession  = "/finishsession <session_id>"
	usageSession        = "/session <session_id>"
	usageRoutineDetails = "/routinedetails <routine_id>"
	usageMyHistory      = "/myhistory [limit]"
)

// usageError is a validation failure that carries the usage line of the
// command that rejected its arguments.
type usageError struct {
	usage  string
	reason string
}

func (e *usageError) Error() string {
	return fmt.Sprintf("%s (usage: %s)", e.reason, e.usage)
}

func (e *usageError) Unwrap() error { return apperr.ErrValidation }

func badArgs(usage, format string, args ...any) error {
	return &usageError{usage: usage, reason: fmt.Sprintf(format, args...)}
}

// NameArgs is the argument of /newroutine.
type NameArgs struct {
	Name string
}

// IDArgs is the single numeric id taken by the delete, start, finish and
// detail commands.
type IDArgs struct {
	ID uint
}

// AddExerciseArgs is the argument of /addroutineexercise.
type AddExerciseArgs struct {
	RoutineID   uint
	Name        string
	Equipment   string
	DefaultReps string
}

// LogSetArgs is the argument of /logset. Empty weight, reps or duration
// fields are nil.
type LogSetArgs struct {
	SessionID       uint
	ExerciseID      uint
	Weight          *float64
	Reps            *int
	DurationSeconds *int
}

// HistoryArgs is the argument of /myhistory. Limit is zero when absent.
type HistoryArgs struct {
	Limit int
}

func parseName(rest string) (NameArgs, error) {
	name := strings.TrimSpace(rest)
	if name == "" {
		return NameArgs{}, badArgs(usageNewRoutine, "name is required")
	}
	return NameArgs{Name: name}, nil
}

func parseIDArg(rest, usage string) (IDArgs, error) {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return IDArgs{}, badArgs(usage, "expected exactly one id")
	}
	id, err := parseID(fields[0])
	if err != nil {
		return IDArgs{}, badArgs(usage, "%v", err)
	}
	return IDArgs{ID: id}, nil
}

func parseAddExercise(rest string) (AddExerciseArgs, error) {
	parts := splitPipes(rest)
	if len(parts) < 2 || len(parts) > 4 {
		return AddExerciseArgs{}, badArgs(usageAddExercise, "expected 2 to 4 fields separated by |")
	}
	id, err := parseID(parts[0])
	if err != nil {
		return AddExerciseArgs{}, badArgs(usageAddExercise, "routine %v", err)
	}
	if parts[1] == "" {
		return AddExerciseArgs{}, badArgs(usageAddExercise, "name is required")
	}
	a := AddExerciseArgs{RoutineID: id, Name: parts[1]}
	if len(parts) > 2 {
		a.Equipment = parts[2]
	}
	if len(parts) > 3 {
		a.DefaultReps = parts[3]
	}
	return a, nil
}

func parseLogSet(rest string) (LogSetArgs, error) {
	parts := splitPipes(rest)
	if len(parts) < 4 || len(parts) > 5 {
		return LogSetArgs{}, badArgs(usageLogSet, "expected 4 or 5 fields separated by |")
	}
	var a LogSetArgs
	var err error
	if a.SessionID, err = parseID(parts[0]); err != nil {
		return LogSetArgs{}, badArgs(usageLogSet, "session %v", err)
	}
	if a.ExerciseID, err = parseID(parts[1]); err != nil {
		return LogSetArgs{}, badArgs(usageLogSet, "exercise %v", err)
	}
	if parts[2] != "" {
		w, err := strconv.ParseFloat(strings.ReplaceAll(parts[2], ",", "."), 64)
		if err != nil || w < 0 {
			return LogSetArgs{}, badArgs(usageLogSet, "weight %q is not a number", parts[2])
		}
		a.Weight = &w
	}
	if a.Reps, err = optionalCount(parts[3]); err != nil {
		return LogSetArgs{}, badArgs(usageLogSet, "reps %v", err)
	}
	if len(parts) == 5 {
		if a.DurationSeconds, err = optionalCount(parts[4]); err != nil {
			return LogSetArgs{}, badArgs(usageLogSet, "duration %v", err)
		}
	}
	return a, nil
}

// parseHistory never fails: a missing or non-numeric limit means default.
func parseHistory(rest string) HistoryArgs {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return HistoryArgs{}
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return HistoryArgs{}
	}
	return HistoryArgs{Limit: n}
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("id %q is not a positive integer", s)
	}
	return uint(n), nil
}

func optionalCount(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return &n, nil
}

func splitPipes(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
