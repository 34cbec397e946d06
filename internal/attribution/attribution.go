// Package attribution runs bounded-concurrency leave-one-out scoring
// against a proxy model and normalizes the resulting deltas (spec.md
// §4.2, component C3).
package attribution

import (
	"context"
	"fmt"
	"sync"

	"github.com/corvid-labs/tripline/internal/contextbuilder"
	"github.com/corvid-labs/tripline/internal/model"
	"github.com/corvid-labs/tripline/internal/providers"
)

// variant is one of the 2+|S| ablation contexts to score, addressed by a
// stable index so results can be reassembled deterministically regardless
// of completion order. index 0 is the base, index 1 is the user-ablated
// variant, and index 2+i is the i-th span-ablated variant.
type variant struct {
	index    int
	messages []model.Message
}

// Compute dispatches exactly 2+len(sc.UntrustedSpans) concurrent scoring
// calls against proxy and returns the normalized attribution. maxBatch
// bounds how many calls may be in flight at once; zero or negative means
// unbounded. Scoring uses scoringMessages (the caller decides whether
// that is sc.AllMessages or a CoT-masked variant); sc itself supplies
// the span/user ablation structure.
func Compute(
	ctx context.Context,
	sc model.StructuredContext,
	scoringMessages []model.Message,
	action model.ToolCall,
	proxy providers.ProxyProvider,
	maxBatch int,
) (model.AttributionResult, error) {
	n := len(sc.UntrustedSpans)
	variants := make([]variant, 0, 2+n)
	variants = append(variants, variant{index: 0, messages: scoringMessages})
	variants = append(variants, variant{index: 1, messages: withUserAblated(scoringMessages, sc.UserRequestIdx)})
	for i, span := range sc.UntrustedSpans {
		variants = append(variants, variant{index: 2 + i, messages: withMessageRemoved(scoringMessages, span.MessageIndex)})
	}

	logprobs := make([]float64, len(variants))
	tokenCounts := make([]int, len(variants))
	errs := make([]error, len(variants))

	var sem chan struct{}
	if maxBatch > 0 {
		sem = make(chan struct{}, maxBatch)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, v := range variants {
		v := v
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-runCtx.Done():
					errs[v.index] = fmt.Errorf("%w: cancelled before dispatch", model.ErrProxyFailure)
					return
				}
			}

			prompt := contextbuilder.SerializePrompt(v.messages)
			resp, err := proxy.Score(runCtx, providers.ScoreRequest{
				Prompt:       prompt,
				Continuation: action.RawText,
			})
			if err != nil {
				errs[v.index] = fmt.Errorf("%w: %v", model.ErrProxyFailure, err)
				cancel()
				return
			}
			if len(resp.Logprobs) != resp.TokenCount {
				errs[v.index] = fmt.Errorf("%w: variant %d reported %d logprobs for %d tokens", model.ErrProxyInconsistency, v.index, len(resp.Logprobs), resp.TokenCount)
				cancel()
				return
			}

			sum := 0.0
			for _, lp := range resp.Logprobs {
				sum += lp
			}
			logprobs[v.index] = sum
			tokenCounts[v.index] = resp.TokenCount
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return model.AttributionResult{}, err
		}
	}

	tokenCount := tokenCounts[0]
	for i, tc := range tokenCounts {
		if tc != tokenCount {
			return model.AttributionResult{}, fmt.Errorf("%w: variant %d has %d action tokens, base has %d", model.ErrProxyInconsistency, i, tc, tokenCount)
		}
	}
	if tokenCount <= 0 {
		return model.AttributionResult{}, fmt.Errorf("%w: proxy reported non-positive action token count", model.ErrProxyInconsistency)
	}

	base := logprobs[0]
	userDelta := (base - logprobs[1]) / float64(tokenCount)

	spanDeltas := make([]float64, n)
	for i := range sc.UntrustedSpans {
		spanDeltas[i] = (base - logprobs[2+i]) / float64(tokenCount)
	}

	return model.AttributionResult{
		BaseLogprob:      base,
		UserDelta:        userDelta,
		SpanDeltas:       spanDeltas,
		ActionTokenCount: tokenCount,
	}, nil
}

func withUserAblated(messages []model.Message, userIdx int) []model.Message {
	return withMessageRemoved(messages, userIdx)
}

func withMessageRemoved(messages []model.Message, idx int) []model.Message {
	out := make([]model.Message, 0, len(messages)-1)
	for i, m := range messages {
		if i == idx {
			continue
		}
		out = append(out, m)
	}
	return out
}
