package chat

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/gymyard/internal/apperr"
	"github.com/zulandar/gymyard/internal/catalog"
	"github.com/zulandar/gymyard/internal/ledger"
	"github.com/zulandar/gymyard/internal/report"
	"github.com/zulandar/gymyard/internal/user"
	"gorm.io/gorm"
)

// commandPrefix is the text prefix accepted on platforms where "/" is
// reserved for native slash commands.
const commandPrefix = "!gym"

// notRecognized is the reply for anything that is not a known command.
const notRecognized = "Command not recognized. Send /help to see the available commands."

// commandFunc runs one command for an already-registered user.
type commandFunc func(ch *CommandHandler, msg InboundMessage, rest string) (string, error)

var commands = map[string]commandFunc{
	"start":              (*CommandHandler).cmdHelp,
	"help":               (*CommandHandler).cmdHelp,
	"newroutine":         (*CommandHandler).cmdNewRoutine,
	"listroutines":       (*CommandHandler).cmdListRoutines,
	"deleteroutine":      (*CommandHandler).cmdDeleteRoutine,
	"addroutineexercise": (*CommandHandler).cmdAddExercise,
	"listexercises":      (*CommandHandler).cmdListExercises,
	"deleteexercise":     (*CommandHandler).cmdDeleteExercise,
	"startroutine":       (*CommandHandler).cmdStartRoutine,
	"logset":             (*CommandHandler).cmdLogSet,
	"finishsession":      (*CommandHandler).cmdFinishSession,
	"session":            (*CommandHandler).cmdSession,
	"routinedetails":     (*CommandHandler).cmdRoutineDetails,
	"myhistory":          (*CommandHandler).cmdMyHistory,
}

// CommandHandler turns a command message into catalog, ledger and report
// calls on behalf of the sender, and renders the reply.
type CommandHandler struct {
	db *gorm.DB
}

// CommandHandlerOpts holds parameters for creating a CommandHandler.
type CommandHandlerOpts struct {
	DB *gorm.DB
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(opts CommandHandlerOpts) (*CommandHandler, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("chat: command handler: db is required")
	}
	return &CommandHandler{db: opts.DB}, nil
}

// Execute runs the command in msg.Text and returns the reply text. The
// sender is registered before the command runs. Failures are rendered as
// replies; storage failures are logged.
func (ch *CommandHandler) Execute(msg InboundMessage) string {
	name, rest, ok := parseCommand(msg.Text)
	if !ok {
		return notRecognized
	}
	fn, known := commands[name]
	if !known {
		return notRecognized
	}

	if err := user.Ensure(ch.db, user.Identity{
		ID:        msg.UserID,
		Username:  msg.UserName,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
	}); err != nil {
		return ch.errorReply(name, err)
	}

	reply, err := fn(ch, msg, rest)
	if err != nil {
		return ch.errorReply(name, err)
	}
	return reply
}

// parseCommand extracts the command name and its argument text from a
// message. It accepts "/name args", "/name@botname args" and "!gym name args".
func parseCommand(text string) (name, rest string, ok bool) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "/"):
		text = text[1:]
	case text == commandPrefix:
		return "help", "", true
	case strings.HasPrefix(text, commandPrefix+" "):
		text = strings.TrimSpace(text[len(commandPrefix)+1:])
	default:
		return "", "", false
	}

	head, rest, _ := strings.Cut(text, " ")
	head, _, _ = strings.Cut(head, "@")
	head = strings.ToLower(head)
	if head == "" {
		return "", "", false
	}
	return head, strings.TrimSpace(rest), true
}

// isCommand returns true if the text is addressed to the command handler.
func isCommand(text string) bool {
	_, _, ok := parseCommand(text)
	return ok
}

func (ch *CommandHandler) errorReply(command string, err error) string {
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		return fmt.Sprintf("Invalid arguments: %s\nUsage: %s", ue.reason, ue.usage)
	case errors.Is(err, apperr.ErrValidation):
		return fmt.Sprintf("Invalid arguments: %v", err)
	case errors.Is(err, apperr.ErrNotFound):
		return notFoundReply(err)
	default:
		log.Printf("chat: command %s: %v", command, err)
		return "Something went wrong, please try again later."
	}
}

// notFoundReply turns "routine 7: not found" into "Routine 7 not found."
func notFoundReply(err error) string {
	what := strings.TrimSuffix(err.Error(), ": "+apperr.ErrNotFound.Error())
	if what == "" {
		return "Not found."
	}
	return strings.ToUpper(what[:1]) + what[1:] + " not found."
}

func (ch *CommandHandler) cmdHelp(msg InboundMessage, _ string) (string, error) {
	return helpText(msg.FirstName), nil
}

func (ch *CommandHandler) cmdNewRoutine(msg InboundMessage, rest string) (string, error) {
	args, err := parseName(rest)
	if err != nil {
		return "", err
	}
	r, err := catalog.CreateRoutine(ch.db, msg.UserID, args.Name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Routine created!\n• Name: %s\n• ID: %d", r.Name, r.ID), nil
}

func (ch *CommandHandler) cmdListRoutines(msg InboundMessage, _ string) (string, error) {
	routines, err := catalog.ListRoutines(ch.db, msg.UserID)
	if err != nil {
		return "", err
	}
	return FormatRoutines(routines), nil
}

func (ch *CommandHandler) cmdDeleteRoutine(msg InboundMessage, rest string) (string, error) {
	args, err := parseIDArg(rest, usageDeleteRoutine)
	if err != nil {
		return "", err
	}
	if err := catalog.DeleteRoutine(ch.db, msg.UserID, args.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Routine %d deleted.", args.ID), nil
}

func (ch *CommandHandler) cmdAddExercise(msg InboundMessage, rest string) (string, error) {
	args, err := parseAddExercise(rest)
	if err != nil {
		return "", err
	}
	e, err := catalog.AddExercise(ch.db, catalog.AddExerciseOpts{
		UserID:      msg.UserID,
		RoutineID:   args.RoutineID,
		Name:        args.Name,
		Equipment:   args.Equipment,
		DefaultReps: args.DefaultReps,
	})
	if err != nil {
		return "", err
	}
	return FormatExerciseAdded(args.RoutineID, e), nil
}

func (ch *CommandHandler) cmdListExercises(msg InboundMessage, _ string) (string, error) {
	exercises, err := catalog.ListExercises(ch.db, msg.UserID)
	if err != nil {
		return "", err
	}
	return FormatExercises(exercises), nil
}

func (ch *CommandHandler) cmdDeleteExercise(msg InboundMessage, rest string) (string, error) {
	args, err := parseIDArg(rest, usageDeleteExercise)
	if err != nil {
		return "", err
	}
	if err := catalog.DeleteExercise(ch.db, msg.UserID, args.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Exercise %d deleted, along with its logged sets.", args.ID), nil
}

func (ch *CommandHandler) cmdStartRoutine(msg InboundMessage, rest string) (string, error) {
	args, err := parseIDArg(rest, usageStartRoutine)
	if err != nil {
		return "", err
	}
	s, err := ledger.StartSession(ch.db, msg.UserID, args.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session started!\nSession ID: %d", s.ID), nil
}

func (ch *CommandHandler) cmdLogSet(msg InboundMessage, rest string) (string, error) {
	args, err := parseLogSet(rest)
	if err != nil {
		return "", err
	}
	set, err := ledger.LogSet(ch.db, ledger.LogSetOpts{
		UserID:          msg.UserID,
		SessionID:       args.SessionID,
		ExerciseID:      args.ExerciseID,
		Weight:          args.Weight,
		Reps:            args.Reps,
		DurationSeconds: args.DurationSeconds,
	})
	if err != nil {
		return "", err
	}
	return FormatSetLogged(set), nil
}

func (ch *CommandHandler) cmdFinishSession(msg InboundMessage, rest string) (string, error) {
	args, err := parseIDArg(rest, usageFinishSession)
	if err != nil {
		return "", err
	}
	s, err := ledger.FinishSession(ch.db, msg.UserID, args.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session %d finished! Duration: %s", s.ID, FormatDuration(report.Duration(*s))), nil
}

func (ch *CommandHandler) cmdSession(msg InboundMessage, rest string) (string, error) {
	args, err := parseIDArg(rest, usageSession)
	if err != nil {
		return "", err
	}
	d, err := report.GetSessionDetail(ch.db, msg.UserID, args.ID)
	if err != nil {
		return "", err
	}
	return FormatSessionDetail(d), nil
}

func (ch *CommandHandler) cmdRoutineDetails(msg InboundMessage, rest string) (string, error) {
	args, err := parseIDArg(rest, usageRoutineDetails)
	if err != nil {
		return "", err
	}
	d, err := catalog.GetRoutineDetail(ch.db, msg.UserID, args.ID)
	if err != nil {
		return "", err
	}
	return FormatRoutineDetail(d), nil
}

func (ch *CommandHandler) cmdMyHistory(msg InboundMessage, rest string) (string, error) {
	args := parseHistory(rest)
	sessions, err := report.History(ch.db, msg.UserID, args.Limit)
	if err != nil {
		return "", err
	}
	return FormatHistory(sessions), nil
}
