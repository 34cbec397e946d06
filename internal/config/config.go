// Package config loads the guard configuration surface from a YAML file
// with environment-variable overrides layered on top (env > file >
// built-in defaults), the env/file/default layers of the precedence
// causal_armor.config.CausalArmorConfig.from_env applies, adapted to the
// teacher's YAML+struct idiom (internal/policy/config.go) instead of TOML.
// Load takes no explicit-override argument.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/corvid-labs/tripline/sdk/go/tripline"
)

// File is the on-disk shape of the guard configuration.
type File struct {
	MarginTau            float64  `yaml:"margin_tau"`
	PrivilegedTools      []string `yaml:"privileged_tools"`
	MaskCOTForScoring    *bool    `yaml:"mask_cot_for_scoring"`
	EnableCOTMasking     *bool    `yaml:"enable_cot_masking"`
	EnableSanitization   *bool    `yaml:"enable_sanitization"`
	MaxLOOBatchSize      *int     `yaml:"max_loo_batch_size"`
	OnAttributionFailure string   `yaml:"on_attribution_failure"`

	Proxy     Endpoint `yaml:"proxy"`
	Action    Endpoint `yaml:"action"`
	Sanitizer Endpoint `yaml:"sanitizer"`
}

// Endpoint is the connection settings for one of the three model-service
// adapters (internal/proxyhttp, internal/actionhttp, internal/sanitizerhttp).
type Endpoint struct {
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	APIKeyEnvVar string `yaml:"api_key_env_var"`
	TimeoutMS    int    `yaml:"timeout_ms"`
}

// Load reads path (if non-empty and it exists) and layers TRIPLINE_* env
// vars on top, returning a tripline.Config plus the adapter endpoint
// settings. A missing path is not an error — the built-in defaults plus
// any env overrides still apply.
func Load(path string) (tripline.Config, File, error) {
	var f File
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return tripline.Config{}, File{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &f); err != nil {
			return tripline.Config{}, File{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg := tripline.DefaultConfig()
	if f.MarginTau != 0 {
		cfg.MarginTau = f.MarginTau
	}
	if len(f.PrivilegedTools) > 0 {
		cfg.PrivilegedTools = toSet(f.PrivilegedTools)
	}
	if f.MaskCOTForScoring != nil {
		cfg.MaskCOTForScoring = *f.MaskCOTForScoring
	}
	if f.EnableCOTMasking != nil {
		cfg.EnableCOTMasking = *f.EnableCOTMasking
	}
	if f.EnableSanitization != nil {
		cfg.EnableSanitization = *f.EnableSanitization
	}
	if f.MaxLOOBatchSize != nil {
		cfg.MaxLOOBatchSize = *f.MaxLOOBatchSize
	}
	if f.OnAttributionFailure != "" {
		cfg.OnAttributionFailure = tripline.AttributionFailurePolicy(f.OnAttributionFailure)
	}

	applyEnvOverrides(&cfg)

	if cfg.OnAttributionFailure != tripline.Passthrough && cfg.OnAttributionFailure != tripline.Block {
		return tripline.Config{}, File{}, fmt.Errorf("config: on_attribution_failure must be %q or %q, got %q",
			tripline.Passthrough, tripline.Block, cfg.OnAttributionFailure)
	}
	if cfg.MarginTau < 0 {
		return tripline.Config{}, File{}, fmt.Errorf("config: margin_tau must be >= 0, got %v", cfg.MarginTau)
	}

	return cfg, f, nil
}

func applyEnvOverrides(cfg *tripline.Config) {
	if v, ok := os.LookupEnv("TRIPLINE_MARGIN_TAU"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.MarginTau = f
		}
	}
	if v, ok := os.LookupEnv("TRIPLINE_MASK_COT_FOR_SCORING"); ok {
		cfg.MaskCOTForScoring = parseBool(v, cfg.MaskCOTForScoring)
	}
	if v, ok := os.LookupEnv("TRIPLINE_ENABLE_COT_MASKING"); ok {
		cfg.EnableCOTMasking = parseBool(v, cfg.EnableCOTMasking)
	}
	if v, ok := os.LookupEnv("TRIPLINE_ENABLE_SANITIZATION"); ok {
		cfg.EnableSanitization = parseBool(v, cfg.EnableSanitization)
	}
	if v, ok := os.LookupEnv("TRIPLINE_MAX_LOO_BATCH_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxLOOBatchSize = n
		}
	}
	if v, ok := os.LookupEnv("TRIPLINE_ON_ATTRIBUTION_FAILURE"); ok {
		cfg.OnAttributionFailure = tripline.AttributionFailurePolicy(v)
	}
}

func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
