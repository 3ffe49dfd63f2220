package toolloop

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StateMachine gates a group of tools behind a caller-defined state enum:
// each tool is bound to the state (or states) it may run in, and a
// successful run can advance the state. The machine itself is immutable
// configuration shared across executions; per-execution position lives in a
// StateHolder.
//
// Build machines with the fluent chain:
//
//	m := toolloop.NewStateMachine[Phase]().
//	    InitialState(phaseDraft)
//	m.InState(phaseDraft).WithTool(submitTool).TransitionsTo(phaseReview)
//	m.InState(phaseReview).WithTool(approveTool).TransitionsTo(phaseDone)
//	m.InState(phaseReview).WithTool(commentTool).Stays()
//	m.Global(statusTool)
//
//	holder := m.NewHolder()
//	reg := toolloop.NewRegistry(m.ToolsFor(holder)...)
type StateMachine[S ~string] struct {
	initial    S
	hasInitial bool
	states     map[S]map[string]stateBinding[S]
	globals    []Tool
}

type stateBinding[S ~string] struct {
	tool Tool
	next *S
}

// NewStateMachine creates an empty machine. Declare the initial state with
// InitialState before creating holders; holders of a machine with no
// initial state reject every gated call.
func NewStateMachine[S ~string]() *StateMachine[S] {
	return &StateMachine[S]{states: make(map[S]map[string]stateBinding[S])}
}

// InitialState declares the state new holders start in.
func (m *StateMachine[S]) InitialState(s S) *StateMachine[S] {
	m.initial = s
	m.hasInitial = true
	return m
}

// Global registers tools that bypass state gating entirely: they are
// callable in every state and never transition.
func (m *StateMachine[S]) Global(tools ...Tool) *StateMachine[S] {
	m.globals = append(m.globals, tools...)
	return m
}

// InState starts a binding declaration for the given state.
func (m *StateMachine[S]) InState(s S) *StateClause[S] {
	return &StateClause[S]{machine: m, state: s}
}

// StateClause is an in-progress binding: a state awaiting its tool and
// transition.
type StateClause[S ~string] struct {
	machine *StateMachine[S]
	state   S
	tool    Tool
}

// WithTool names the tool being bound in this state.
func (c *StateClause[S]) WithTool(t Tool) *StateClause[S] {
	c.tool = t
	return c
}

// TransitionsTo completes the binding: a successful call advances the
// holder to next. Error results do not transition.
func (c *StateClause[S]) TransitionsTo(next S) *StateMachine[S] {
	return c.bind(&next)
}

// Stays completes the binding without a transition.
func (c *StateClause[S]) Stays() *StateMachine[S] {
	return c.bind(nil)
}

func (c *StateClause[S]) bind(next *S) *StateMachine[S] {
	if c.tool == nil {
		panic("toolloop: InState(...).WithTool(nil) binding")
	}
	byName := c.machine.states[c.state]
	if byName == nil {
		byName = make(map[string]stateBinding[S])
		c.machine.states[c.state] = byName
	}
	byName[c.tool.Definition().Name] = stateBinding[S]{tool: c.tool, next: next}
	return c.machine
}

// StateHolder tracks one execution's position in the machine. Holders are
// safe for concurrent use; transitions are applied atomically.
type StateHolder[S ~string] struct {
	id      string
	mu      sync.Mutex
	current S
	set     bool
}

// NewHolder creates a holder positioned at the machine's initial state.
func (m *StateMachine[S]) NewHolder() *StateHolder[S] {
	h := &StateHolder[S]{id: uuid.NewString()}
	if m.hasInitial {
		h.current = m.initial
		h.set = true
	}
	return h
}

// StartingIn creates a holder resuming from an explicit state, for
// executions restored mid-flight.
func (m *StateMachine[S]) StartingIn(s S) *StateHolder[S] {
	return &StateHolder[S]{id: uuid.NewString(), current: s, set: true}
}

// ID returns the holder's unique identifier.
func (h *StateHolder[S]) ID() string { return h.id }

// Current returns the holder's state and whether one is set.
func (h *StateHolder[S]) Current() (S, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.set
}

// advance moves the holder from observed to next, unless a concurrent call
// already moved it elsewhere.
func (h *StateHolder[S]) advance(observed, next S) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.set && h.current == observed {
		h.current = next
	}
}

// ToolsFor returns the tool set for one execution: every bound tool,
// wrapped to enforce the holder's state, plus the globals unwrapped. Tools
// bound in multiple states appear once.
func (m *StateMachine[S]) ToolsFor(holder *StateHolder[S]) []Tool {
	seen := make(map[string]bool)
	var out []Tool
	for _, state := range m.sortedStates() {
		for _, name := range sortedKeys(m.states[state]) {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, &gatedTool[S]{machine: m, holder: holder, name: name, delegate: m.states[state][name].tool})
		}
	}
	out = append(out, m.globals...)
	return out
}

func (m *StateMachine[S]) sortedStates() []S {
	states := make([]S, 0, len(m.states))
	for s := range m.states {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

// statesFor lists the states a tool name is bound in, sorted.
func (m *StateMachine[S]) statesFor(name string) []string {
	var states []string
	for s, byName := range m.states {
		if _, ok := byName[name]; ok {
			states = append(states, string(s))
		}
	}
	sort.Strings(states)
	return states
}

// gatedTool enforces the holder's state around a delegate tool.
type gatedTool[S ~string] struct {
	machine  *StateMachine[S]
	holder   *StateHolder[S]
	name     string
	delegate Tool
}

func (g *gatedTool[S]) Definition() Definition { return g.delegate.Definition() }

func (g *gatedTool[S]) Call(ctx context.Context, input string) (Result, error) {
	current, ok := g.holder.Current()
	if !ok {
		return ErrorResult("no initial state: the %s tool group has no starting state configured", g.name), nil
	}
	binding, bound := g.machine.states[current][g.name]
	if !bound {
		return ErrorResult("tool %s is not available in state %q; it is available in state(s): %s",
			g.name, string(current), strings.Join(g.machine.statesFor(g.name), ", ")), nil
	}
	// Invoke the binding for the current state: a name bound in several
	// states may carry a different implementation in each.
	res, err := binding.tool.Call(ctx, input)
	if err != nil {
		return res, err
	}
	if !res.IsError() && binding.next != nil {
		g.holder.advance(current, *binding.next)
	}
	return res, nil
}

var _ Tool = (*gatedTool[string])(nil)
