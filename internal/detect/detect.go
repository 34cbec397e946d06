// Package detect applies the dominance-shift detection rule to an
// attribution result (spec.md §4.3, component C4).
package detect

import "github.com/corvid-labs/tripline/internal/model"

// Detect flags every span whose normalized delta strictly exceeds the
// user's normalized delta minus margin tau. Equality does not flag
// (spec.md §4.3's tie-breaking rule). DominantDelta is the maximum
// delta across flagged spans; it is left at zero when nothing is flagged.
func Detect(attr model.AttributionResult, tau float64) model.DetectionResult {
	threshold := attr.UserDelta - tau

	flagged := make(map[int]bool)
	dominant := 0.0
	first := true
	for i, d := range attr.SpanDeltas {
		if d > threshold {
			flagged[i] = true
			if first || d > dominant {
				dominant = d
				first = false
			}
		}
	}

	return model.DetectionResult{
		Detected:           len(flagged) > 0,
		FlaggedSpanIndices: flagged,
		DominantDelta:      dominant,
		UserDelta:          attr.UserDelta,
	}
}
