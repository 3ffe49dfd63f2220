package toolloop

import (
	"sync"
	"time"
)

// EventKind identifies the type of loop event.
type EventKind string

const (
	EventCallStart     EventKind = "call_start"
	EventCallEnd       EventKind = "call_end"
	EventToolResult    EventKind = "tool_result"
	EventIterationEnd  EventKind = "iteration_end"
	EventRepeatWarning EventKind = "repeat_warning"
)

// Event is a typed event emitted by the loop.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	RunID     string                 `json:"run_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventEmitter delivers typed events to the host application via a channel.
// Delivery is best-effort: a full channel drops the event rather than block
// the loop.
type EventEmitter struct {
	runID  string
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

// NewEventEmitter creates an EventEmitter with a buffered channel.
func NewEventEmitter(runID string, bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{
		runID: runID,
		ch:    make(chan Event, bufferSize),
	}
}

// Emit sends an event to the channel. Closed emitters drop silently.
func (e *EventEmitter) Emit(kind EventKind, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := Event{
		Kind:      kind,
		Timestamp: time.Now(),
		RunID:     e.runID,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
		// Channel full; drop event to avoid blocking the loop.
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

// EventInspector publishes one event per loop phase to an emitter.
type EventInspector struct {
	BaseInspector
	emitter *EventEmitter
}

// NewEventInspector wraps an emitter as an Inspector.
func NewEventInspector(emitter *EventEmitter) *EventInspector {
	return &EventInspector{emitter: emitter}
}

func (i *EventInspector) BeforeCall(pc PreCallContext) {
	i.emitter.Emit(EventCallStart, map[string]interface{}{
		"iteration":        pc.Iteration,
		"messages":         len(pc.History),
		"tools":            len(pc.ToolDefs),
		"estimated_tokens": pc.EstimatedTokens,
	})
}

func (i *EventInspector) AfterCall(pc PostCallContext) {
	i.emitter.Emit(EventCallEnd, map[string]interface{}{
		"iteration":     pc.Iteration,
		"finish_reason": pc.Response.FinishReason.Reason,
		"tool_calls":    len(pc.Response.Message.ToolCalls()),
		"input_tokens":  pc.Response.Usage.InputTokens,
		"output_tokens": pc.Response.Usage.OutputTokens,
	})
}

func (i *EventInspector) AfterToolResult(tc ToolResultContext) {
	i.emitter.Emit(EventToolResult, map[string]interface{}{
		"iteration": tc.Iteration,
		"tool":      tc.ToolName,
		"call_id":   tc.CallID,
		"is_error":  tc.Result.IsError(),
	})
}

func (i *EventInspector) AfterIteration(ic IterationContext) {
	i.emitter.Emit(EventIterationEnd, map[string]interface{}{
		"iteration":  ic.Iteration,
		"tool_calls": len(ic.Invocations),
		"messages":   len(ic.History),
	})
}
