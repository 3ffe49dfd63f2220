package toolloop

import (
	"crypto/sha256"
	"fmt"

	"github.com/martinemde/agentkit/unifiedllm"
)

// RepeatDetector watches the tool call stream for short repeating patterns
// (the model calling the same tool with the same arguments over and over)
// and injects a system warning into history when one appears. The warning
// nudges the model off the loop; termination stays with the iteration
// budget. A detector carries per-run state: create a fresh one per run.
type RepeatDetector struct {
	BaseTransformer
	windowSize int
	signatures []string
	warned     bool
	emitter    *EventEmitter
}

// NewRepeatDetector creates a detector over the last windowSize tool calls.
// Values below 3 use a window of 6.
func NewRepeatDetector(windowSize int) *RepeatDetector {
	if windowSize < 3 {
		windowSize = 6
	}
	return &RepeatDetector{windowSize: windowSize}
}

// WithEmitter also publishes an EventRepeatWarning when a pattern is found.
func (d *RepeatDetector) WithEmitter(emitter *EventEmitter) *RepeatDetector {
	d.emitter = emitter
	return d
}

func (d *RepeatDetector) TransformAfterToolResult(tc ToolResultContext, rendering string) string {
	sig := callSignature(tc.ToolName, tc.Input)
	d.signatures = append(d.signatures, sig)
	if len(d.signatures) > d.windowSize {
		d.signatures = d.signatures[len(d.signatures)-d.windowSize:]
	}
	return rendering
}

func (d *RepeatDetector) TransformAfterIteration(ic IterationContext, history []unifiedllm.Message) []unifiedllm.Message {
	if d.warned || !hasRepeatingPattern(d.signatures, d.windowSize) {
		return history
	}
	d.warned = true
	if d.emitter != nil {
		d.emitter.Emit(EventRepeatWarning, map[string]interface{}{
			"iteration": ic.Iteration,
			"window":    d.windowSize,
		})
	}
	warning := unifiedllm.SystemMessage(
		"You appear to be repeating the same tool calls with the same arguments. " +
			"Change your approach or answer with what you have.")
	return append(history, warning)
}

func callSignature(name, input string) string {
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%s:%x", name, h[:8])
}

// hasRepeatingPattern checks whether the signature window is an exact
// repetition of a pattern of length 1, 2, or 3.
func hasRepeatingPattern(sigs []string, windowSize int) bool {
	if len(sigs) < windowSize {
		return false
	}
	sigs = sigs[len(sigs)-windowSize:]
	for patternLen := 1; patternLen <= 3; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		pattern := sigs[:patternLen]
		allMatch := true
		for i := patternLen; i < windowSize && allMatch; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if sigs[i+j] != pattern[j] {
					allMatch = false
					break
				}
			}
		}
		if allMatch {
			return true
		}
	}
	return false
}
