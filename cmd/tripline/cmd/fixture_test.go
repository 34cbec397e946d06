package cmd

import (
	"testing"

	"github.com/corvid-labs/tripline/internal/model"
)

func TestFixtureToMessagesPreservesFields(t *testing.T) {
	fx := fixture{
		Messages: []fixtureMessage{
			{Role: "user", Content: "hi"},
			{Role: "tool", Content: "result", ToolName: "web_search", ToolCallID: "call-1"},
		},
	}
	msgs := fx.toMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Role != model.RoleTool || msgs[1].ToolName != "web_search" || msgs[1].ToolCallID != "call-1" {
		t.Errorf("expected tool fields preserved, got %+v", msgs[1])
	}
}

func TestFixtureToActionDefaultsNilArguments(t *testing.T) {
	fx := fixture{Action: fixtureAction{Name: "act", RawText: "act()"}}
	action := fx.toAction()
	if action.Arguments == nil {
		t.Fatal("expected a non-nil empty map when arguments are omitted")
	}
	if len(action.Arguments) != 0 {
		t.Errorf("expected empty arguments, got %+v", action.Arguments)
	}
	if action.Name != "act" || action.RawText != "act()" {
		t.Errorf("expected name and raw text preserved, got %+v", action)
	}
}

func TestFixtureToActionKeepsSuppliedArguments(t *testing.T) {
	fx := fixture{Action: fixtureAction{Name: "act", Arguments: map[string]any{"x": 1.0}}}
	action := fx.toAction()
	if action.Arguments["x"] != 1.0 {
		t.Errorf("expected supplied arguments preserved, got %+v", action.Arguments)
	}
}
