package toolloop

import "github.com/martinemde/agentkit/unifiedllm"

// WindowTransformer caps history length with a sliding window over the most
// recent messages. It rewrites history before every model call and again at
// the end of every iteration, so the persistent history stays bounded too.
type WindowTransformer struct {
	BaseTransformer
	maxMessages    int
	preserveSystem bool
}

// WindowOption configures a WindowTransformer.
type WindowOption func(*WindowTransformer)

// WithoutSystemPreservation drops system messages from the window like any
// other message. The default keeps every system message regardless of cap.
func WithoutSystemPreservation() WindowOption {
	return func(w *WindowTransformer) { w.preserveSystem = false }
}

// NewWindowTransformer creates a sliding-window transformer keeping at most
// maxMessages messages. With system preservation on (the default), every
// system message survives even when that alone exceeds the cap; the
// remaining slots go to the most recent non-system messages.
func NewWindowTransformer(maxMessages int, opts ...WindowOption) *WindowTransformer {
	w := &WindowTransformer{maxMessages: maxMessages, preserveSystem: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WindowTransformer) TransformBeforeCall(_ PreCallContext, history []unifiedllm.Message) []unifiedllm.Message {
	return w.apply(history)
}

func (w *WindowTransformer) TransformAfterIteration(_ IterationContext, history []unifiedllm.Message) []unifiedllm.Message {
	return w.apply(history)
}

func (w *WindowTransformer) apply(history []unifiedllm.Message) []unifiedllm.Message {
	if w.maxMessages <= 0 || len(history) <= w.maxMessages {
		return history
	}
	if !w.preserveSystem {
		return history[len(history)-w.maxMessages:]
	}

	var system, rest []unifiedllm.Message
	for _, msg := range history {
		if msg.IsSystem() {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
		}
	}
	slots := w.maxMessages - len(system)
	if slots < 0 {
		slots = 0
	}
	if slots < len(rest) {
		rest = rest[len(rest)-slots:]
	}

	// System messages come first, then the surviving tail in order.
	out := make([]unifiedllm.Message, 0, len(system)+len(rest))
	out = append(out, system...)
	out = append(out, rest...)
	return out
}
