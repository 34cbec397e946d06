// Package defense implements the sanitize / mask / regenerate defense
// pipeline and its strict no-fallback policy (spec.md §4.4, component
// C5). It runs only after C4 reports a positive detection.
package defense

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/corvid-labs/tripline/internal/model"
	"github.com/corvid-labs/tripline/internal/providers"
)

// Config carries the subset of the configuration surface the defense
// pipeline consults.
type Config struct {
	EnableCOTMasking    bool
	EnableSanitization  bool
}

// Run executes the full defense pipeline for a positive detection and
// returns the packaged DefenseResult. attribution may be nil only when
// called from a failure path that never ran attribution; Run itself
// requires a positive detection and does not distinguish that case.
func Run(
	ctx context.Context,
	sc model.StructuredContext,
	action model.ToolCall,
	detection model.DetectionResult,
	attribution *model.AttributionResult,
	sanitizer providers.SanitizerProvider,
	actionProvider providers.ActionProvider,
	cfg Config,
) (model.DefenseResult, error) {
	messages := make([]model.Message, len(sc.AllMessages))
	copy(messages, sc.AllMessages)

	sanitizedSpans := make(map[int]string)

	if cfg.EnableSanitization {
		flaggedIdx := sortedKeys(detection.FlaggedSpanIndices)
		type outcome struct {
			idx     int
			content string
			err     error
		}
		results := make([]outcome, len(flaggedIdx))
		var wg sync.WaitGroup
		for pos, spanIdx := range flaggedIdx {
			pos, spanIdx := pos, spanIdx
			span := sc.UntrustedSpans[spanIdx]
			wg.Add(1)
			go func() {
				defer wg.Done()
				cleaned, err := sanitizer.Sanitize(ctx, span.Content, span.ToolName)
				results[pos] = outcome{idx: spanIdx, content: cleaned, err: err}
			}()
		}
		wg.Wait()

		for _, r := range results {
			if r.err != nil {
				cause := fmt.Errorf("%w: span %d: %v", model.ErrSanitizationFailure, r.idx, r.err)
				return failStripped(action, detection, attribution, cause), cause
			}
			span := sc.UntrustedSpans[r.idx]
			messages = model.ReplaceSpanContent(messages, span.MessageIndex, r.content)
			sanitizedSpans[r.idx] = r.content
		}
	}

	if cfg.EnableCOTMasking {
		earliestFlagged := earliestFlaggedPosition(sc, detection)
		messages = model.MaskAssistantAfter(messages, earliestFlagged)
	}

	proposed, err := actionProvider.Propose(ctx, messages)
	if err != nil {
		cause := fmt.Errorf("%w: %v", model.ErrRegenerationFailure, err)
		return failStripped(action, detection, attribution, cause), cause
	}

	final := model.Stripped(action)
	if proposed != nil {
		final = *proposed
	}

	return model.DefenseResult{
		OriginalAction: action,
		FinalAction:    final,
		WasDefended:    true,
		Detection:      detection,
		Attribution:    attribution,
		SanitizedSpans: sanitizedSpans,
	}, nil
}

// failStripped packages a DefenseResult carrying the stripped action for
// any failure inside the defense pipeline. The error is returned to the
// caller purely for logging; the result itself never regresses to the
// original attacker-controlled action (spec.md §7's no-fallback rule).
func failStripped(action model.ToolCall, detection model.DetectionResult, attribution *model.AttributionResult, cause error) model.DefenseResult {
	return model.DefenseResult{
		OriginalAction: action,
		FinalAction:    model.Stripped(action),
		WasDefended:    true,
		Detection:      detection,
		Attribution:    attribution,
		SanitizedSpans: map[int]string{},
	}
}

func earliestFlaggedPosition(sc model.StructuredContext, detection model.DetectionResult) int {
	min := -1
	for idx := range detection.FlaggedSpanIndices {
		pos := sc.UntrustedSpans[idx].MessageIndex
		if min == -1 || pos < min {
			min = pos
		}
	}
	return min
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
