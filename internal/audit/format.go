package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Trace: %s | No entries found.\n", result.TraceID)
	}

	var b strings.Builder

	// Header
	first := result.Summary.FirstTimestamp
	last := result.Summary.LastTimestamp
	firstTime := formatDateRange(first)
	lastTime := formatTimeOnly(last)
	b.WriteString(fmt.Sprintf("Trace: %s | %s–%s UTC\n", result.TraceID, firstTime, lastTime))
	b.WriteString(separator + "\n")

	// Entries
	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		verdict := "clean"
		if e.WasDefended {
			verdict = "defended"
		} else if e.Detected {
			verdict = "detected"
		}
		action := truncate(e.ActionName, 24)

		tag := ""
		if len(e.RedactedSpans) > 0 {
			tag = fmt.Sprintf("  [%d span(s) sanitized]", len(e.RedactedSpans))
		}

		b.WriteString(fmt.Sprintf("%-10s %-9s %-24s delta=%.3f flagged=%d%s\n",
			ts, verdict, action, e.DominantDelta, len(e.FlaggedSpanIndices), tag))
	}

	// Footer
	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	return fmt.Sprintf("Summary: %d detected, %d defended of %d | max dominant delta: %.3f\n",
		s.DetectedCount, s.DefendedCount, s.Total, s.MaxDominantDelta)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
