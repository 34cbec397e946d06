package tripline

import (
	"context"

	"github.com/corvid-labs/tripline/internal/attribution"
	"github.com/corvid-labs/tripline/internal/contextbuilder"
	"github.com/corvid-labs/tripline/internal/defense"
	"github.com/corvid-labs/tripline/internal/detect"
	"github.com/corvid-labs/tripline/internal/model"
	"github.com/corvid-labs/tripline/internal/providers"
)

// Guard wires the context builder, attribution engine, detector, and
// defense pipeline behind a single Check call. It holds no mutable state:
// every call to Check is independent and safe to run concurrently across
// distinct conversations (spec.md §5, "single-conversation
// single-threaded at the top level").
type Guard struct {
	cfg       Config
	proxy     providers.ProxyProvider
	action    providers.ActionProvider
	sanitizer providers.SanitizerProvider
}

// New constructs a Guard against the three external capabilities, applying
// any options over DefaultConfig().
func New(proxy providers.ProxyProvider, action providers.ActionProvider, sanitizer providers.SanitizerProvider, opts ...Option) *Guard {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Guard{cfg: cfg, proxy: proxy, action: action, sanitizer: sanitizer}
}

// Check evaluates one proposed action against the conversation it arose
// from and returns the guardrail's verdict (spec.md §4.5).
//
// untrustedToolNames identifies which tool-role messages in messages are
// untrusted spans (§3 UntrustedSpan invariant: message_index must point
// to a tool message whose tool_name is in this set).
func (g *Guard) Check(ctx context.Context, messages []model.Message, act model.ToolCall, untrustedToolNames []string) (model.DefenseResult, error) {
	// Short-circuit 1: privileged tools bypass the pipeline entirely.
	if g.cfg.PrivilegedTools[act.Name] {
		return passthroughResult(act), nil
	}

	untrusted := make(map[string]bool, len(untrustedToolNames))
	for _, n := range untrustedToolNames {
		untrusted[n] = true
	}

	sc, err := contextbuilder.Build(messages, untrusted, g.cfg.PrivilegedTools)
	if err != nil {
		return model.DefenseResult{}, err
	}

	// Short-circuit 2: nothing to attribute to.
	if sc.UserRequest == nil || !sc.HasUntrustedSpans() {
		return passthroughResult(act), nil
	}

	scoringMessages := sc.AllMessages
	if g.cfg.MaskCOTForScoring {
		scoringMessages = sc.WithCOTMaskedAfterFirstUntrustedSpan()
	}

	attr, err := attribution.Compute(ctx, sc, scoringMessages, act, g.proxy, g.cfg.MaxLOOBatchSize)
	if err != nil {
		if g.cfg.OnAttributionFailure == Block {
			return model.DefenseResult{
				OriginalAction: act,
				FinalAction:    model.Stripped(act),
				WasDefended:    true,
			}, nil
		}
		return passthroughResult(act), nil
	}

	detection := detect.Detect(attr, g.cfg.MarginTau)
	if !detection.Detected {
		result := passthroughResult(act)
		result.Detection = detection
		result.Attribution = &attr
		return result, nil
	}

	defCfg := defense.Config{
		EnableCOTMasking:   g.cfg.EnableCOTMasking,
		EnableSanitization: g.cfg.EnableSanitization,
	}
	// defense.Run's error return carries the failure cause purely for the
	// caller's own logging; per spec.md §7 the returned DefenseResult is
	// already the correct no-fallback outcome regardless, so Check itself
	// never fails because of it.
	result, _ := defense.Run(ctx, sc, act, detection, &attr, g.sanitizer, g.action, defCfg)
	return result, nil
}

func passthroughResult(act model.ToolCall) model.DefenseResult {
	return model.DefenseResult{
		OriginalAction: act,
		FinalAction:    act,
		WasDefended:    false,
	}
}
