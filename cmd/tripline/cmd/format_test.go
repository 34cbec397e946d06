package cmd

import (
	"strings"
	"testing"

	"github.com/corvid-labs/tripline/internal/model"
)

func TestPlainVerdictReflectsSeverity(t *testing.T) {
	cases := []struct {
		detected, defended bool
		want                string
	}{
		{false, false, "clean"},
		{true, false, "detected"},
		{true, true, "defended"},
	}
	for _, c := range cases {
		if got := plainVerdict(c.detected, c.defended); got != c.want {
			t.Errorf("plainVerdict(%v, %v) = %q, want %q", c.detected, c.defended, got, c.want)
		}
	}
}

func TestColorizeIsNoopWhenNotATerminal(t *testing.T) {
	original := stdoutIsTerminal
	stdoutIsTerminal = false
	defer func() { stdoutIsTerminal = original }()

	if got := colorize(ansiRed, "plain"); got != "plain" {
		t.Errorf("expected no escape codes when stdout is not a terminal, got %q", got)
	}
}

func TestColorizeVerdictPreservesPaddedLabelWidth(t *testing.T) {
	original := stdoutIsTerminal
	stdoutIsTerminal = true
	defer func() { stdoutIsTerminal = original }()

	padded := "detected "
	colored := colorizeVerdict(true, false, padded)
	if !strings.Contains(colored, padded) {
		t.Fatalf("expected the padded label to survive colorizing intact, got %q", colored)
	}
}

func TestFormatDecisionTextIncludesTraceAndVerdict(t *testing.T) {
	original := stdoutIsTerminal
	stdoutIsTerminal = false
	defer func() { stdoutIsTerminal = original }()

	result := model.DefenseResult{
		OriginalAction: model.ToolCall{Name: "transfer_funds"},
		FinalAction:    model.ToolCall{Name: "transfer_funds"},
		WasDefended:    false,
	}
	out := formatDecisionText("trace-123", result)
	if !strings.Contains(out, "trace-123") {
		t.Errorf("expected trace ID in output, got %q", out)
	}
	if !strings.Contains(out, "transfer_funds -> transfer_funds") {
		t.Errorf("expected action transition in output, got %q", out)
	}
	if !strings.Contains(out, "clean") {
		t.Errorf("expected clean verdict in output, got %q", out)
	}
}
