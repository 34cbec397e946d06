package cmd

import "github.com/corvid-labs/tripline/internal/model"

// fixture is the on-disk/wire shape of one Guard.Check call: the
// conversation, the agent's proposed action, and which tool names in the
// conversation are untrusted. Kept separate from internal/model's types
// since that package deliberately performs no I/O or JSON tagging of its
// own (internal/model/message.go's package doc).
type fixture struct {
	Messages           []fixtureMessage `json:"messages"`
	Action             fixtureAction    `json:"action"`
	UntrustedToolNames []string         `json:"untrusted_tool_names"`
	TraceID            string           `json:"trace_id,omitempty"`
}

type fixtureMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

type fixtureAction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	RawText   string         `json:"raw_text"`
}

func (fx fixture) toMessages() []model.Message {
	out := make([]model.Message, len(fx.Messages))
	for i, m := range fx.Messages {
		out[i] = model.Message{
			Role:       model.Role(m.Role),
			Content:    m.Content,
			ToolName:   m.ToolName,
			ToolCallID: m.ToolCallID,
		}
	}
	return out
}

func (fx fixture) toAction() model.ToolCall {
	args := fx.Action.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return model.ToolCall{Name: fx.Action.Name, Arguments: args, RawText: fx.Action.RawText}
}
