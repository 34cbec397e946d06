package tripline

// Config is the read-only configuration surface from spec.md §6. It is
// injected once at construction; guard() never mutates it. A reload
// (internal/reload) produces a fresh Config and a fresh Guard rather than
// mutating an existing one, matching spec.md §5's "no process-wide
// mutable state" rule.
type Config struct {
	MarginTau            float64
	PrivilegedTools      map[string]bool
	MaskCOTForScoring    bool
	EnableCOTMasking     bool
	EnableSanitization   bool
	MaxLOOBatchSize      int // 0 means unbounded
	OnAttributionFailure AttributionFailurePolicy
}

// DefaultConfig returns the configuration surface's documented defaults.
func DefaultConfig() Config {
	return Config{
		MarginTau:            0,
		PrivilegedTools:      map[string]bool{},
		MaskCOTForScoring:    true,
		EnableCOTMasking:     true,
		EnableSanitization:   true,
		MaxLOOBatchSize:      0,
		OnAttributionFailure: Passthrough,
	}
}

// Option configures a Guard at construction time.
type Option func(*Config)

// WithMarginTau sets the detection margin tau (default 0).
func WithMarginTau(tau float64) Option {
	return func(c *Config) { c.MarginTau = tau }
}

// WithPrivilegedTools marks tool names whose actions bypass the pipeline
// entirely and whose tool results are skipped when enumerating untrusted
// spans, even if also named as untrusted.
func WithPrivilegedTools(names ...string) Option {
	return func(c *Config) {
		if c.PrivilegedTools == nil {
			c.PrivilegedTools = map[string]bool{}
		}
		for _, n := range names {
			c.PrivilegedTools[n] = true
		}
	}
}

// WithMaskCOTForScoring toggles pre-scoring chain-of-thought masking
// (default true).
func WithMaskCOTForScoring(enabled bool) Option {
	return func(c *Config) { c.MaskCOTForScoring = enabled }
}

// WithCOTMasking toggles chain-of-thought masking before regeneration
// (default true).
func WithCOTMasking(enabled bool) Option {
	return func(c *Config) { c.EnableCOTMasking = enabled }
}

// WithSanitization toggles the sanitize step of the defense pipeline
// (default true). Disabling it is intended for ablation studies only.
func WithSanitization(enabled bool) Option {
	return func(c *Config) { c.EnableSanitization = enabled }
}

// WithMaxLOOBatchSize bounds the number of in-flight proxy scoring calls
// (0 means unbounded, the default).
func WithMaxLOOBatchSize(n int) Option {
	return func(c *Config) { c.MaxLOOBatchSize = n }
}

// WithOnAttributionFailure sets the policy applied when attribution fails
// (default Passthrough).
func WithOnAttributionFailure(p AttributionFailurePolicy) Option {
	return func(c *Config) { c.OnAttributionFailure = p }
}
