// Package contextbuilder decomposes a flat conversation into the user
// request, trusted history, and untrusted spans that every downstream
// stage of the pipeline operates on (spec.md §4.1, component C2).
package contextbuilder

import (
	"fmt"
	"strings"

	"github.com/corvid-labs/tripline/internal/model"
)

// Build decomposes messages into a StructuredContext. untrustedToolNames
// identifies which tool-role messages are untrusted spans; privilegedTools
// identifies tool-role messages that are skipped entirely when enumerating
// spans, even if their name also appears in untrustedToolNames.
//
// Returns a context with UserRequest == nil (and UserRequestIdx == -1)
// when no role=user message exists — callers must not treat this as an
// error; the orchestrator treats it as "nothing to attribute to" and
// passes the action through (spec.md §4.1.1).
func Build(messages []model.Message, untrustedToolNames, privilegedTools map[string]bool) (model.StructuredContext, error) {
	for i, m := range messages {
		if m.Role == model.RoleTool && m.ToolName == "" {
			return model.StructuredContext{}, fmt.Errorf("%w: message %d has role=tool without tool_name", model.ErrInvalidInput, i)
		}
		if m.Role != model.RoleTool && m.ToolName != "" {
			return model.StructuredContext{}, fmt.Errorf("%w: message %d has tool_name but role=%s", model.ErrInvalidInput, i, m.Role)
		}
	}

	all := make([]model.Message, len(messages))
	copy(all, messages)

	userIdx := -1
	for i, m := range all {
		if m.Role == model.RoleUser {
			userIdx = i
			break
		}
	}

	var userRequest *model.Message
	if userIdx >= 0 {
		u := all[userIdx]
		userRequest = &u
	}

	var spans []model.UntrustedSpan
	var history []model.Message
	for i, m := range all {
		isUntrustedSpan := m.Role == model.RoleTool && untrustedToolNames[m.ToolName] && !privilegedTools[m.ToolName]
		if isUntrustedSpan {
			spans = append(spans, model.UntrustedSpan{
				Index:        len(spans),
				ToolName:     m.ToolName,
				Content:      m.Content,
				MessageIndex: i,
			})
			continue
		}
		if m.Role != model.RoleUser {
			history = append(history, m)
		}
	}

	return model.StructuredContext{
		UserRequest:    userRequest,
		UserRequestIdx: userIdx,
		History:        history,
		UntrustedSpans: spans,
		AllMessages:    all,
	}, nil
}

// SerializePrompt renders a message sequence to the fixed, stable textual
// form the proxy's byte-offset alignment depends on: one
// "<ROLE>: <content>\n" line per message, role label uppercased, in order.
func SerializePrompt(messages []model.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(strings.ToUpper(string(m.Role)))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
