package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/corvid-labs/tripline/internal/model"
)

const (
	ansiRed    = "\033[0;31m"
	ansiGreen  = "\033[0;32m"
	ansiYellow = "\033[1;33m"
	ansiReset  = "\033[0m"
)

var stdoutIsTerminal = isatty.IsTerminal(os.Stdout.Fd())

func plainVerdict(detected, defended bool) string {
	switch {
	case defended:
		return "defended"
	case detected:
		return "detected"
	default:
		return "clean"
	}
}

// colorizeVerdict colors label (already padded by the caller, if needed)
// according to the verdict's severity.
func colorizeVerdict(detected, defended bool, label string) string {
	switch {
	case defended:
		return colorize(ansiRed, label)
	case detected:
		return colorize(ansiYellow, label)
	default:
		return colorize(ansiGreen, label)
	}
}

func verdictLabel(detected, defended bool) string {
	return colorizeVerdict(detected, defended, plainVerdict(detected, defended))
}

// colorize wraps s in an ANSI color code, but only when stdout is an
// interactive terminal — piping `tripline check`/`history` output never
// gets escape codes mixed into it.
func colorize(code, s string) string {
	if !stdoutIsTerminal {
		return s
	}
	return code + s + ansiReset
}

// formatDecisionText renders one DefenseResult the way a human running
// `tripline check` at a terminal would want to read it.
func formatDecisionText(traceID string, result model.DefenseResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "trace:   %s\n", traceID)
	fmt.Fprintf(&b, "action:  %s -> %s\n", result.OriginalAction.Name, result.FinalAction.Name)
	fmt.Fprintf(&b, "verdict: %s\n", verdictLabel(result.Detection.Detected, result.WasDefended))
	if result.Attribution != nil {
		fmt.Fprintf(&b, "deltas:  user=%.4f dominant=%.4f flagged=%d\n",
			result.Detection.UserDelta, result.Detection.DominantDelta, len(result.Detection.FlaggedSpanIndices))
	}
	if msg := result.BlockMessage(); msg != "" {
		fmt.Fprintf(&b, "\n%s\n", msg)
	}
	return b.String()
}
