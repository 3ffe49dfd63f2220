package toolloop

import "github.com/rs/zerolog"

// LoggingInspector logs every loop phase through zerolog. It observes
// only; logging failures cannot affect the run.
//
// The level controls how chatty the routine phase lines are. Error-kinded
// tool results log at warn regardless.
type LoggingInspector struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLoggingInspector creates a LoggingInspector logging phases at debug.
func NewLoggingInspector(logger zerolog.Logger) *LoggingInspector {
	return &LoggingInspector{logger: logger, level: zerolog.DebugLevel}
}

// WithLevel sets the level for routine phase lines (trace, debug, or info).
func (l *LoggingInspector) WithLevel(level zerolog.Level) *LoggingInspector {
	l.level = level
	return l
}

func (l *LoggingInspector) BeforeCall(pc PreCallContext) {
	l.logger.WithLevel(l.level).
		Int("iteration", pc.Iteration).
		Int("messages", len(pc.History)).
		Int("tools", len(pc.ToolDefs)).
		Int("estimated_tokens", pc.EstimatedTokens).
		Msg("llm call")
}

func (l *LoggingInspector) AfterCall(pc PostCallContext) {
	l.logger.WithLevel(l.level).
		Str("finish_reason", pc.Response.FinishReason.Reason).
		Int("iteration", pc.Iteration).
		Int("tool_calls", len(pc.Response.Message.ToolCalls())).
		Int("input_tokens", pc.Response.Usage.InputTokens).
		Int("output_tokens", pc.Response.Usage.OutputTokens).
		Msg("llm response")
}

func (l *LoggingInspector) AfterToolResult(tc ToolResultContext) {
	evt := l.logger.WithLevel(l.level)
	if tc.Result.IsError() {
		evt = l.logger.Warn()
	}
	evt.
		Int("iteration", tc.Iteration).
		Str("tool", tc.ToolName).
		Str("call_id", tc.CallID).
		Int("result_chars", len(tc.Result.Render())).
		Bool("is_error", tc.Result.IsError()).
		Msg("tool result")
}

func (l *LoggingInspector) AfterIteration(ic IterationContext) {
	l.logger.WithLevel(l.level).
		Int("iteration", ic.Iteration).
		Int("tool_calls", len(ic.Invocations)).
		Int("messages", len(ic.History)).
		Msg("iteration complete")
}
