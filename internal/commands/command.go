package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/grouping"
	"github.com/sandeepkv93/punchcard/internal/timelog"
)

type Type string

const (
	TypeStart   Type = "start"
	TypeStop    Type = "stop"
	TypeLog     Type = "log"
	TypeEdit    Type = "edit"
	TypeGroup   Type = "group"
	TypeWeek    Type = "week"
	TypeView    Type = "view"
	TypeSubmit  Type = "submit"
	TypeReopen  Type = "reopen"
	TypeReview  Type = "review"
	TypeMsg     Type = "msg"
	TypeRefresh Type = "refresh"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type StartArgs struct {
	Project string
	Task    string
}

type StopArgs struct {
	Notes string
}

// LogArgs describes a manual entry. Date is "today", "yesterday" or
// YYYY-MM-DD; exactly one of End and Duration is set.
type LogArgs struct {
	Date     string
	Start    string
	End      string
	Duration string
	Project  string
	Task     string
}

// EditArgs rewrites the entry ID with the same fields as a manual log.
type EditArgs struct {
	ID string
	LogArgs
}

type GroupArgs struct {
	Mode grouping.Mode
}

type WeekArgs struct {
	// Offset is -1 for prev, +1 for next and 0 for today.
	Offset int
}

type ViewArgs struct {
	Name string
}

type TimesheetArgs struct {
	ID string
}

type ReviewArgs struct {
	ID      string
	Approve bool
	Comment string
}

type MsgArgs struct {
	Text string
}

type Command struct {
	Type   Type
	Raw    string
	Start  *StartArgs
	Stop   *StopArgs
	Log    *LogArgs
	Edit   *EditArgs
	Group  *GroupArgs
	Week   *WeekArgs
	View   *ViewArgs
	Sheet  *TimesheetArgs
	Review *ReviewArgs
	Msg    *MsgArgs
}

// Names lists the supported commands for help and completion.
func Names() []Type {
	return []Type{TypeStart, TypeStop, TypeLog, TypeEdit, TypeGroup, TypeWeek, TypeView, TypeSubmit, TypeReopen, TypeReview, TypeMsg, TypeRefresh}
}

var views = []string{"tracker", "detailed", "report", "timesheets", "messages"}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeStart:
		return parseStart(input, args)
	case TypeStop:
		return Command{Type: TypeStop, Raw: input, Stop: &StopArgs{Notes: strings.Join(args, " ")}}, nil
	case TypeLog:
		return parseLog(input, args)
	case TypeEdit:
		return parseEdit(input, args)
	case TypeGroup:
		return parseGroup(input, args)
	case TypeWeek:
		return parseWeek(input, args)
	case TypeView:
		return parseView(input, args)
	case TypeSubmit, TypeReopen:
		if len(args) != 1 {
			return Command{}, invalid("%s requires a timesheet id", head)
		}
		return Command{Type: Type(head), Raw: input, Sheet: &TimesheetArgs{ID: args[0]}}, nil
	case TypeReview:
		return parseReview(input, args)
	case TypeMsg:
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return Command{}, invalid("msg requires text")
		}
		return Command{Type: TypeMsg, Raw: input, Msg: &MsgArgs{Text: text}}, nil
	case TypeRefresh:
		return Command{Type: TypeRefresh, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseStart(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("start requires a project")
	}
	return Command{Type: TypeStart, Raw: raw, Start: &StartArgs{
		Project: args[0],
		Task:    strings.Join(args[1:], " "),
	}}, nil
}

func parseLog(raw string, args []string) (Command, error) {
	if len(args) < 4 {
		return Command{}, invalid("log requires <date> <start> <end|+H:MM> <project> [task]")
	}
	out := LogArgs{Date: strings.ToLower(args[0]), Start: args[1], Project: args[3], Task: strings.Join(args[4:], " ")}

	switch out.Date {
	case "today", "yesterday":
	default:
		if _, err := calendar.ParseDay(out.Date); err != nil {
			return Command{}, invalid("invalid date %q", args[0])
		}
	}
	if _, ok := timelog.ParseClock(out.Start); !ok {
		return Command{}, invalid("invalid start time %q", out.Start)
	}
	if strings.HasPrefix(args[2], "+") {
		d := strings.TrimPrefix(args[2], "+")
		if timelog.ParseDuration(d) <= 0 {
			return Command{}, invalid("invalid duration %q", args[2])
		}
		out.Duration = d
	} else {
		if _, ok := timelog.ParseClock(args[2]); !ok {
			return Command{}, invalid("invalid end time %q", args[2])
		}
		out.End = args[2]
	}
	return Command{Type: TypeLog, Raw: raw, Log: &out}, nil
}

func parseEdit(raw string, args []string) (Command, error) {
	if len(args) < 5 {
		return Command{}, invalid("edit requires <entry> <date> <start> <end|+H:MM> <project> [task]")
	}
	logged, err := parseLog(raw, args[1:])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeEdit, Raw: raw, Edit: &EditArgs{ID: args[0], LogArgs: *logged.Log}}, nil
}

func parseGroup(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("group requires day, week, month or project")
	}
	mode, err := grouping.ParseMode(args[0])
	if err != nil {
		return Command{}, invalid("unknown group mode %q", args[0])
	}
	return Command{Type: TypeGroup, Raw: raw, Group: &GroupArgs{Mode: mode}}, nil
}

func parseWeek(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("week requires prev, next or today")
	}
	offset := 0
	switch strings.ToLower(args[0]) {
	case "prev", "previous":
		offset = -1
	case "next":
		offset = 1
	case "today", "this":
	default:
		return Command{}, invalid("unknown week target %q", args[0])
	}
	return Command{Type: TypeWeek, Raw: raw, Week: &WeekArgs{Offset: offset}}, nil
}

func parseView(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("view requires one of %s", strings.Join(views, ", "))
	}
	name := strings.ToLower(args[0])
	for _, v := range views {
		if v == name {
			return Command{Type: TypeView, Raw: raw, View: &ViewArgs{Name: name}}, nil
		}
	}
	return Command{}, invalid("unknown view %q", args[0])
}

func parseReview(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("review requires <timesheet> approve|deny [comment]")
	}
	out := ReviewArgs{ID: args[0], Comment: strings.TrimSpace(strings.Join(args[2:], " "))}
	switch strings.ToLower(args[1]) {
	case "approve", "approved":
		out.Approve = true
	case "deny", "denied":
		if out.Comment == "" {
			return Command{}, invalid("deny requires a comment")
		}
	default:
		return Command{}, invalid("review decision must be approve or deny, got %q", args[1])
	}
	return Command{Type: TypeReview, Raw: raw, Review: &out}, nil
}
