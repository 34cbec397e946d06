package audit

import (
	"testing"

	"github.com/corvid-labs/tripline/internal/model"
)

func TestBuildEntryPassthrough(t *testing.T) {
	result := model.DefenseResult{
		OriginalAction: model.ToolCall{Name: "read_file"},
		FinalAction:    model.ToolCall{Name: "read_file"},
		WasDefended:    false,
	}

	e := BuildEntry("t-1", result)
	if e.ActionName != "read_file" {
		t.Errorf("expected action name read_file, got %s", e.ActionName)
	}
	if e.Detected || e.WasDefended {
		t.Error("expected passthrough entry to be neither detected nor defended")
	}
	if e.DominantSpanIndex != -1 {
		t.Errorf("expected no dominant span on passthrough, got %d", e.DominantSpanIndex)
	}
	if len(e.FlaggedSpanIndices) != 0 {
		t.Errorf("expected no flagged spans, got %v", e.FlaggedSpanIndices)
	}
}

func TestBuildEntryDefended(t *testing.T) {
	result := model.DefenseResult{
		OriginalAction: model.ToolCall{Name: "send_email"},
		FinalAction:    model.ToolCall{Name: "send_email"},
		WasDefended:    true,
		Detection: model.DetectionResult{
			Detected:           true,
			FlaggedSpanIndices: map[int]bool{2: true, 0: true},
			DominantDelta:      0.8,
			UserDelta:          0.1,
		},
		SanitizedSpans: map[int]string{0: "this is a very long cleaned span that should be truncated for the audit log preview"},
	}

	e := BuildEntry("t-2", result)
	if !e.Detected || !e.WasDefended {
		t.Error("expected detected and defended entry")
	}
	if e.DominantSpanIndex != 0 {
		t.Errorf("expected dominant span to be the lowest flagged index (0), got %d", e.DominantSpanIndex)
	}
	if len(e.FlaggedSpanIndices) != 2 || e.FlaggedSpanIndices[0] != 0 || e.FlaggedSpanIndices[1] != 2 {
		t.Errorf("expected sorted flagged spans [0 2], got %v", e.FlaggedSpanIndices)
	}
	if len(e.RedactedSpans) != 1 || e.RedactedSpans[0].SpanIndex != 0 {
		t.Fatalf("expected one redacted span at index 0, got %v", e.RedactedSpans)
	}
	if len(e.RedactedSpans[0].Preview) > previewMaxLen {
		t.Errorf("expected preview truncated to %d chars, got %d", previewMaxLen, len(e.RedactedSpans[0].Preview))
	}
}
