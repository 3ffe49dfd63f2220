package toolloop

import "fmt"

// TruncationMode specifies which part of an oversized rendering survives.
type TruncationMode string

const (
	// TruncateHead keeps the first maxLength characters and appends a
	// marker noting how much is shown.
	TruncateHead TruncationMode = "head"
	// TruncateHeadTail keeps the first and last halves and marks the
	// removed middle.
	TruncateHeadTail TruncationMode = "head_tail"
)

// DefaultTruncateLength is the rendering cap when none is configured.
const DefaultTruncateLength = 10000

// TruncateTransformer caps tool result renderings. Oversized renderings are
// cut per the configured mode; everything at or under the cap passes
// through untouched.
type TruncateTransformer struct {
	BaseTransformer
	maxLength  int
	mode       TruncationMode
	toolLimits map[string]int
}

// TruncateOption configures a TruncateTransformer.
type TruncateOption func(*TruncateTransformer)

// WithTruncationMode selects the truncation mode.
func WithTruncationMode(mode TruncationMode) TruncateOption {
	return func(t *TruncateTransformer) { t.mode = mode }
}

// WithToolLimit overrides the cap for a specific tool.
func WithToolLimit(toolName string, maxLength int) TruncateOption {
	return func(t *TruncateTransformer) { t.toolLimits[toolName] = maxLength }
}

// NewTruncateTransformer creates a truncating transformer. maxLength values
// below 1 use DefaultTruncateLength.
func NewTruncateTransformer(maxLength int, opts ...TruncateOption) *TruncateTransformer {
	if maxLength < 1 {
		maxLength = DefaultTruncateLength
	}
	t := &TruncateTransformer{
		maxLength:  maxLength,
		mode:       TruncateHead,
		toolLimits: make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TruncateTransformer) TransformAfterToolResult(tc ToolResultContext, rendering string) string {
	limit := t.maxLength
	if override, ok := t.toolLimits[tc.ToolName]; ok && override >= 1 {
		limit = override
	}
	return Truncate(rendering, limit, t.mode)
}

// Truncate cuts s to at most maxLength content characters per mode,
// appending a marker describing the cut. Strings at or under the limit are
// returned unchanged.
func Truncate(s string, maxLength int, mode TruncationMode) string {
	if len(s) <= maxLength {
		return s
	}
	switch mode {
	case TruncateHeadTail:
		half := maxLength / 2
		removed := len(s) - maxLength
		return s[:half] +
			fmt.Sprintf("\n...[truncated, %d chars removed from the middle]...\n", removed) +
			s[len(s)-half:]
	default:
		return s[:maxLength] + fmt.Sprintf("...[truncated, %d chars shown]", maxLength)
	}
}
