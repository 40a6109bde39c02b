package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Start   func(StartArgs) (Result, error)
	Stop    func(StopArgs) (Result, error)
	Log     func(LogArgs) (Result, error)
	Edit    func(EditArgs) (Result, error)
	Group   func(GroupArgs) (Result, error)
	Week    func(WeekArgs) (Result, error)
	View    func(ViewArgs) (Result, error)
	Submit  func(TimesheetArgs) (Result, error)
	Reopen  func(TimesheetArgs) (Result, error)
	Review  func(ReviewArgs) (Result, error)
	Msg     func(MsgArgs) (Result, error)
	Refresh func() (Result, error)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeStart:
		if handlers.Start == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Start(*cmd.Start)
	case TypeStop:
		if handlers.Stop == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Stop(*cmd.Stop)
	case TypeLog:
		if handlers.Log == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Log(*cmd.Log)
	case TypeEdit:
		if handlers.Edit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Edit(*cmd.Edit)
	case TypeGroup:
		if handlers.Group == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Group(*cmd.Group)
	case TypeWeek:
		if handlers.Week == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Week(*cmd.Week)
	case TypeView:
		if handlers.View == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.View(*cmd.View)
	case TypeSubmit:
		if handlers.Submit == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Submit(*cmd.Sheet)
	case TypeReopen:
		if handlers.Reopen == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Reopen(*cmd.Sheet)
	case TypeReview:
		if handlers.Review == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Review(*cmd.Review)
	case TypeMsg:
		if handlers.Msg == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Msg(*cmd.Msg)
	case TypeRefresh:
		if handlers.Refresh == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Refresh()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
