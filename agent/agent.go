// Package agent layers goal-directed execution on top of the tool loop:
// actions whose inputs curry against blackboard artifacts, goals expressed
// as predicates over the blackboard, and a runner that drives an agent to
// its goals through the loop engine.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/martinemde/agentkit/blackboard"
	"github.com/martinemde/agentkit/toolloop"
	"github.com/martinemde/agentkit/unifiedllm"
)

// UserInput is the artifact type a runner seeds from the caller's request
// text. Actions declaring a UserInput-typed input curry against it.
type UserInput struct {
	Text string
}

// Input is one named input of an action. An input is satisfied either by
// the model passing it as a tool parameter, or by an artifact of the
// declared type already sitting on the blackboard. Satisfied inputs
// disappear from the action's exposed tool schema.
type Input struct {
	Name        string
	Description string
	Type        reflect.Type
}

// ArtifactInput declares an input satisfiable by a T-typed artifact.
func ArtifactInput[T any](name, description string) Input {
	return Input{Name: name, Description: description, Type: blackboard.TypeOf[T]()}
}

// Action is a unit of agent capability: a named operation with declared
// inputs. Exposed to the model as a tool, its schema shrinks as blackboard
// artifacts satisfy inputs; with every input satisfied the action is fully
// curried and callable with zero parameters.
type Action struct {
	Name        string
	Description string
	Inputs      []Input

	// Run executes the action. args holds one value per input: the
	// model-provided parameter value, or the blackboard artifact that
	// curried it away.
	Run func(ctx context.Context, args map[string]any) (toolloop.Result, error)
}

// Missing returns the inputs not currently satisfied by the blackboard.
func (a Action) Missing(b *blackboard.Blackboard) []Input {
	var missing []Input
	for _, in := range a.Inputs {
		if in.Type == nil || b == nil || !b.Has(in.Type) {
			missing = append(missing, in)
		}
	}
	return missing
}

// Ready reports whether every input is satisfied by the blackboard.
func (a Action) Ready(b *blackboard.Blackboard) bool {
	return len(a.Missing(b)) == 0
}

// ExposedParams returns the tool parameters the model must still provide:
// one string parameter per unsatisfied input. A ready action exposes none.
func (a Action) ExposedParams(b *blackboard.Blackboard) []toolloop.Param {
	missing := a.Missing(b)
	params := make([]toolloop.Param, 0, len(missing))
	for _, in := range missing {
		params = append(params, toolloop.Param{
			Name:        in.Name,
			Type:        toolloop.ParamString,
			Description: in.Description,
			Required:    true,
		})
	}
	return params
}

// Tool exposes the action as a tool curried against the given blackboard.
// The returned tool's schema reflects the blackboard at call time, so a
// loop refreshing its dynamic tools each iteration sees the schema shrink
// as artifacts land.
func (a Action) Tool(b *blackboard.Blackboard) toolloop.Tool {
	return &actionTool{action: a, board: b}
}

type actionTool struct {
	action Action
	board  *blackboard.Blackboard
}

func (t *actionTool) Definition() toolloop.Definition {
	return toolloop.Definition{
		Name:        t.action.Name,
		Description: t.action.Description,
		Schema:      toolloop.NewSchema(t.action.ExposedParams(t.board)...),
	}
}

func (t *actionTool) Call(ctx context.Context, input string) (toolloop.Result, error) {
	var provided map[string]any
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &provided); err != nil {
			return toolloop.ErrorResult("invalid arguments for %s: %v", t.action.Name, err), nil
		}
	}

	args := make(map[string]any, len(t.action.Inputs))
	var unmet []string
	for _, in := range t.action.Inputs {
		if v, ok := provided[in.Name]; ok {
			args[in.Name] = v
			continue
		}
		if in.Type != nil && t.board != nil {
			if artifact := t.board.Latest(in.Type); artifact != nil {
				args[in.Name] = artifact
				continue
			}
		}
		unmet = append(unmet, in.Name)
	}
	if len(unmet) > 0 {
		return toolloop.ErrorResult("%s is missing required input(s): %s",
			t.action.Name, strings.Join(unmet, ", ")), nil
	}
	return t.action.Run(ctx, args)
}

// Goal is a completion condition over the blackboard.
type Goal struct {
	Name        string
	Description string
	Satisfied   func(b *blackboard.Blackboard) bool
}

// ArtifactGoal is satisfied once an artifact of type T is on the
// blackboard.
func ArtifactGoal[T any](name, description string) Goal {
	return Goal{
		Name:        name,
		Description: description,
		Satisfied: func(b *blackboard.Blackboard) bool {
			return b != nil && blackboard.HasType[T](b)
		},
	}
}

// Agent is a named bundle of actions, plain tools, and goals.
type Agent struct {
	Name         string
	SystemPrompt string
	Actions      []Action
	Tools        []toolloop.Tool
	Goals        []Goal
}

// ReadyActions returns the actions whose inputs the blackboard currently
// satisfies in full.
func (a *Agent) ReadyActions(b *blackboard.Blackboard) []Action {
	var ready []Action
	for _, action := range a.Actions {
		if action.Ready(b) {
			ready = append(ready, action)
		}
	}
	return ready
}

// GoalsMet reports whether every goal is satisfied. An agent with no goals
// is never "done" by goal; its runs end when the model stops.
func (a *Agent) GoalsMet(b *blackboard.Blackboard) bool {
	if len(a.Goals) == 0 {
		return false
	}
	for _, g := range a.Goals {
		if !g.Satisfied(b) {
			return false
		}
	}
	return true
}

// UnmetGoals lists the goals not yet satisfied.
func (a *Agent) UnmetGoals(b *blackboard.Blackboard) []Goal {
	var unmet []Goal
	for _, g := range a.Goals {
		if !g.Satisfied(b) {
			unmet = append(unmet, g)
		}
	}
	return unmet
}

// Outcome is the result of one agent run.
type Outcome struct {
	Result   *toolloop.RunResult
	GoalsMet bool

	// Board is the blackboard the run executed against, holding every
	// artifact the run produced.
	Board *blackboard.Blackboard
}

// Runner drives agents through a loop engine.
type Runner struct {
	engine *toolloop.Engine
}

// NewRunner creates a Runner over the given LLM boundary.
func NewRunner(boundary toolloop.Boundary, opts ...toolloop.EngineOption) *Runner {
	return &Runner{engine: toolloop.NewEngine(boundary, opts...)}
}

// Run executes one loop over the agent's actions and tools. A non-empty
// userInput both opens the conversation and is seeded onto the blackboard
// as a UserInput artifact, currying any action that declares one. Action
// tools are refreshed every iteration, so schemas track the blackboard as
// artifacts accumulate.
func (r *Runner) Run(ctx context.Context, ag *Agent, b *blackboard.Blackboard, userInput string) (*Outcome, error) {
	if b == nil {
		b = blackboard.New()
	}
	if userInput != "" {
		b.Add(UserInput{Text: userInput})
	}

	opening := userInput
	if opening == "" {
		opening = fmt.Sprintf("Work toward the goals of agent %s using the available tools.", ag.Name)
	}

	result, err := r.engine.Run(ctx, toolloop.RunRequest{
		SystemPrompt: ag.SystemPrompt,
		History:      []unifiedllm.Message{unifiedllm.UserMessage(opening)},
		Tools:        toolloop.NewRegistry(ag.Tools...),
		Blackboard:   b,
		DynamicTools: func(board *blackboard.Blackboard) []toolloop.Tool {
			tools := make([]toolloop.Tool, 0, len(ag.Actions))
			for _, action := range ag.Actions {
				tools = append(tools, action.Tool(board))
			}
			return tools
		},
	})
	if err != nil {
		return &Outcome{Result: result, GoalsMet: ag.GoalsMet(b), Board: b}, err
	}
	return &Outcome{Result: result, GoalsMet: ag.GoalsMet(b), Board: b}, nil
}
