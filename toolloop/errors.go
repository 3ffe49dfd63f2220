package toolloop

import (
	"errors"
	"fmt"
)

// ErrEmptyUnfoldGroup is returned at construction time when an unfolding
// tool is declared with no inner tools. A facade that can disclose nothing
// is a configuration mistake, caught before any loop runs.
var ErrEmptyUnfoldGroup = errors.New("unfolding tool requires at least one inner tool")

// BudgetExhaustedError terminates a run whose model never produced a final
// answer within the iteration budget.
type BudgetExhaustedError struct {
	Iterations int
	LastTool   string
}

func (e *BudgetExhaustedError) Error() string {
	if e.LastTool == "" {
		return fmt.Sprintf("iteration budget exhausted after %d iterations", e.Iterations)
	}
	return fmt.Sprintf("iteration budget exhausted after %d iterations (last tool: %s)", e.Iterations, e.LastTool)
}

// FatalError wraps an LLM boundary failure with loop context: which
// iteration failed and the last tool invoked before the failure.
type FatalError struct {
	Iteration int
	LastTool  string
	Err       error
}

func (e *FatalError) Error() string {
	if e.LastTool == "" {
		return fmt.Sprintf("iteration %d: %v", e.Iteration, e.Err)
	}
	return fmt.Sprintf("iteration %d (last tool: %s): %v", e.Iteration, e.LastTool, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
