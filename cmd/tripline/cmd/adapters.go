package cmd

import (
	"net/http"
	"os"
	"time"

	"github.com/corvid-labs/tripline/internal/actionhttp"
	"github.com/corvid-labs/tripline/internal/config"
	"github.com/corvid-labs/tripline/internal/proxyhttp"
	"github.com/corvid-labs/tripline/internal/sanitizerhttp"
	"github.com/corvid-labs/tripline/sdk/go/tripline"
)

// buildAdapters constructs the three model-service adapters from the
// config file's endpoint settings. API keys are never read from the
// config file itself, only from the environment variable it names.
func buildAdapters(f config.File) (*proxyhttp.Client, *actionhttp.Client, *sanitizerhttp.Client) {
	proxy := proxyhttp.New(f.Proxy.BaseURL, resolveAPIKey(f.Proxy.APIKeyEnvVar), f.Proxy.Model, timeoutClient(f.Proxy.TimeoutMS))
	action := actionhttp.New(f.Action.BaseURL, resolveAPIKey(f.Action.APIKeyEnvVar), f.Action.Model, timeoutClient(f.Action.TimeoutMS))
	sanitizer := sanitizerhttp.New(f.Sanitizer.BaseURL, resolveAPIKey(f.Sanitizer.APIKeyEnvVar), f.Sanitizer.Model, timeoutClient(f.Sanitizer.TimeoutMS))
	return proxy, action, sanitizer
}

func resolveAPIKey(envVar string) string {
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

func timeoutClient(ms int) *http.Client {
	if ms <= 0 {
		return nil
	}
	return &http.Client{Timeout: time.Duration(ms) * time.Millisecond}
}

// optionsFromConfig translates a loaded tripline.Config into the Option
// values tripline.New expects, so a rebuilt Guard (on reload) reflects
// every field of a freshly loaded config rather than a stale default.
func optionsFromConfig(cfg tripline.Config) []tripline.Option {
	opts := []tripline.Option{
		tripline.WithMarginTau(cfg.MarginTau),
		tripline.WithMaskCOTForScoring(cfg.MaskCOTForScoring),
		tripline.WithCOTMasking(cfg.EnableCOTMasking),
		tripline.WithSanitization(cfg.EnableSanitization),
		tripline.WithMaxLOOBatchSize(cfg.MaxLOOBatchSize),
		tripline.WithOnAttributionFailure(cfg.OnAttributionFailure),
	}
	if len(cfg.PrivilegedTools) > 0 {
		names := make([]string, 0, len(cfg.PrivilegedTools))
		for n := range cfg.PrivilegedTools {
			names = append(names, n)
		}
		opts = append(opts, tripline.WithPrivilegedTools(names...))
	}
	return opts
}

// newGuardBuilder returns the build func internal/reload.Watcher needs:
// the three adapters are fixed at startup from the config file's endpoint
// settings, while the returned closure rebuilds a Guard from whatever
// tripline.Config a later reload produces.
func newGuardBuilder(f config.File) func(tripline.Config) *tripline.Guard {
	proxy, action, sanitizer := buildAdapters(f)
	return func(cfg tripline.Config) *tripline.Guard {
		return tripline.New(proxy, action, sanitizer, optionsFromConfig(cfg)...)
	}
}
