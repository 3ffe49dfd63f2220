package toolloop

import "errors"

// ErrReplanRequested is the control-flow signal a tool raises when the
// current plan is no longer viable and the caller above the loop should
// re-plan. The engine never converts it into a tool result: it unwinds the
// loop (and any enclosing sub-loops) untouched.
var ErrReplanRequested = errors.New("replan requested")

// ReplanError carries the reason a tool requested a replan. It matches
// ErrReplanRequested under errors.Is.
type ReplanError struct {
	Reason string
}

// ReplanRequested returns a replan signal with the given reason.
func ReplanRequested(reason string) error {
	return &ReplanError{Reason: reason}
}

func (e *ReplanError) Error() string {
	if e.Reason == "" {
		return ErrReplanRequested.Error()
	}
	return "replan requested: " + e.Reason
}

func (e *ReplanError) Is(target error) bool {
	return target == ErrReplanRequested
}
