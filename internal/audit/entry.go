package audit

import (
	"sort"

	"github.com/corvid-labs/tripline/internal/model"
)

// RedactedSpan previews a sanitized untrusted span in the decision log
// without storing its full original content.
type RedactedSpan struct {
	SpanIndex int    `json:"span_index"`
	Preview   string `json:"preview"`
}

// AuditEntry is one line in the hash-chained JSONL decision log. All
// fields are structs or slices (no map[string]any) to keep json.Marshal
// field order deterministic for reproducible hashing.
type AuditEntry struct {
	Timestamp          string         `json:"ts"`
	TraceID            string         `json:"trace_id"`
	ActionName         string         `json:"action_name"`
	Detected           bool           `json:"detected"`
	WasDefended        bool           `json:"was_defended"`
	DominantSpanIndex  int            `json:"dominant_span_index"`
	DominantDelta      float64        `json:"dominant_delta"`
	UserDelta          float64        `json:"user_delta"`
	FlaggedSpanIndices []int          `json:"flagged_span_indices"`
	RedactedSpans      []RedactedSpan `json:"redacted_spans,omitempty"`
	PrevHash           string         `json:"prev_hash"`
}

const previewMaxLen = 80

// BuildEntry packages a guard decision for the audit log. traceID
// identifies the Guard.Check call that produced result; the caller
// (cmd/tripline's check and serve commands) is responsible for generating it,
// since the core itself never writes to the audit log (spec.md §6.6:
// logging happens after the core returns, never inside it).
func BuildEntry(traceID string, result model.DefenseResult) AuditEntry {
	flagged := make([]int, 0, len(result.Detection.FlaggedSpanIndices))
	for idx := range result.Detection.FlaggedSpanIndices {
		flagged = append(flagged, idx)
	}
	sort.Ints(flagged)
	dominantIdx := result.DominantSpanIndex()

	var redacted []RedactedSpan
	for _, idx := range sortedSanitizedKeys(result.SanitizedSpans) {
		redacted = append(redacted, RedactedSpan{
			SpanIndex: idx,
			Preview:   truncate(result.SanitizedSpans[idx], previewMaxLen),
		})
	}

	return AuditEntry{
		TraceID:            traceID,
		ActionName:         result.OriginalAction.Name,
		Detected:           result.Detection.Detected,
		WasDefended:        result.WasDefended,
		DominantSpanIndex:  dominantIdx,
		DominantDelta:      result.Detection.DominantDelta,
		UserDelta:          result.Detection.UserDelta,
		FlaggedSpanIndices: flagged,
		RedactedSpans:      redacted,
	}
}

func sortedSanitizedKeys(m map[int]string) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
