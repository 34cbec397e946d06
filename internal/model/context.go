package model

// ReasoningRedactedPlaceholder replaces assistant messages masked either
// before LOO scoring or before regeneration. The literal string is fixed
// for reproducibility across runs and across the two masking call sites
// (spec.md §9, "exact CoT-mask placeholder string").
const ReasoningRedactedPlaceholder = "[Reasoning redacted]"

// StructuredContext is the decomposition of a conversation into a user
// request, a trusted history, and an ordered set of untrusted spans.
// All_messages is exactly the input sequence the builder was given; it is
// kept so that derived variants can be produced without re-walking the
// original message list.
//
// UserRequest is nil when no role=user message exists anywhere in
// AllMessages.
type StructuredContext struct {
	UserRequest     *Message
	UserRequestIdx  int // position of UserRequest in AllMessages, -1 if absent
	History         []Message
	UntrustedSpans  []UntrustedSpan
	AllMessages     []Message
}

// HasUntrustedSpans reports whether any untrusted span was extracted.
func (c StructuredContext) HasUntrustedSpans() bool {
	return len(c.UntrustedSpans) > 0
}

// WithUserAblated returns the same message sequence with the first user
// message removed. When the context has no user request (UserRequestIdx
// is -1), nothing is removed and a copy of AllMessages is returned.
func (c StructuredContext) WithUserAblated() []Message {
	out := make([]Message, 0, len(c.AllMessages)-1)
	for i, m := range c.AllMessages {
		if i == c.UserRequestIdx {
			continue
		}
		out = append(out, m)
	}
	return out
}

// WithSpanAblated returns the message sequence with the i-th untrusted
// span's originating tool message removed.
func (c StructuredContext) WithSpanAblated(i int) []Message {
	span := c.UntrustedSpans[i]
	out := make([]Message, 0, len(c.AllMessages)-1)
	for idx, m := range c.AllMessages {
		if idx == span.MessageIndex {
			continue
		}
		out = append(out, m)
	}
	return out
}

// WithCOTMaskedAfterFirstUntrustedSpan replaces every assistant message
// positioned strictly after the earliest untrusted span with the fixed
// redaction placeholder, preserving message positions and roles. Returns
// AllMessages unchanged (a fresh copy) if there are no untrusted spans.
func (c StructuredContext) WithCOTMaskedAfterFirstUntrustedSpan() []Message {
	out := make([]Message, len(c.AllMessages))
	copy(out, c.AllMessages)
	if !c.HasUntrustedSpans() {
		return out
	}
	return maskAssistantAfter(out, earliestSpanPosition(c.UntrustedSpans))
}

// maskAssistantAfter replaces every assistant-role message strictly after
// position with the fixed redaction placeholder. Shared by the
// pre-scoring mask (C2) and the pre-regeneration mask (C5) so both apply
// the identical rule.
func maskAssistantAfter(messages []Message, position int) []Message {
	for i := position + 1; i < len(messages); i++ {
		if messages[i].Role == RoleAssistant {
			messages[i] = Message{
				Role:       RoleAssistant,
				Content:    ReasoningRedactedPlaceholder,
				ToolName:   messages[i].ToolName,
				ToolCallID: messages[i].ToolCallID,
			}
		}
	}
	return messages
}

// MaskAssistantAfter is the exported form used by the defense pipeline
// (C5), which masks relative to the earliest *flagged* span rather than
// the earliest untrusted span.
func MaskAssistantAfter(messages []Message, position int) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	return maskAssistantAfter(out, position)
}

// ReplaceSpanContent returns a copy of messages with the tool message at
// messageIndex replaced by one bearing newContent, preserving ToolName,
// ToolCallID, and position.
func ReplaceSpanContent(messages []Message, messageIndex int, newContent string) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	old := out[messageIndex]
	out[messageIndex] = Message{
		Role:       old.Role,
		Content:    newContent,
		ToolName:   old.ToolName,
		ToolCallID: old.ToolCallID,
	}
	return out
}

func earliestSpanPosition(spans []UntrustedSpan) int {
	min := spans[0].MessageIndex
	for _, s := range spans[1:] {
		if s.MessageIndex < min {
			min = s.MessageIndex
		}
	}
	return min
}
