// Package tripline is the public entry point for the attribution-and-
// defense guardrail: it wires the context builder, attribution engine,
// detector, and defense pipeline behind a single Guard.Check call
// (spec.md §4.5, component C6).
//
// Usage:
//
//	g := tripline.New(proxy, actionProvider, sanitizer,
//	    tripline.WithPrivilegedTools("read_file"),
//	    tripline.WithMarginTau(0.5),
//	)
//	result, err := g.Check(ctx, messages, proposedAction, []string{"web_search"})
//	if result.WasDefended {
//	    // dispatch result.FinalAction instead of the agent's original proposal
//	}
package tripline

import "github.com/corvid-labs/tripline/internal/model"

// AttributionFailurePolicy controls what guard() does when the attribution
// engine cannot produce a result (spec.md §4.5 step 4).
type AttributionFailurePolicy string

const (
	// Passthrough returns the original action unchanged, was_defended=false.
	Passthrough AttributionFailurePolicy = "passthrough"
	// Block returns a stripped action, was_defended=true.
	Block AttributionFailurePolicy = "block"
)

// Re-exported value types so callers need only import this package for
// the common case.
type (
	Message           = model.Message
	Role              = model.Role
	ToolCall          = model.ToolCall
	DefenseResult     = model.DefenseResult
	DetectionResult   = model.DetectionResult
	AttributionResult = model.AttributionResult
)

const (
	RoleSystem    = model.RoleSystem
	RoleUser      = model.RoleUser
	RoleAssistant = model.RoleAssistant
	RoleTool      = model.RoleTool
)
