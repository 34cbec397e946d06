package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corvid-labs/tripline/internal/model"
	"github.com/corvid-labs/tripline/internal/providers"
	"github.com/corvid-labs/tripline/sdk/go/tripline"
)

type fakeProxy struct{}

func (fakeProxy) Score(ctx context.Context, req providers.ScoreRequest) (providers.ScoreResponse, error) {
	return providers.ScoreResponse{Logprobs: []float64{-0.1}, TokenCount: 1}, nil
}

type fakeAction struct{}

func (fakeAction) Propose(ctx context.Context, messages []model.Message) (*model.ToolCall, error) {
	return nil, nil
}

type fakeSanitizer struct{}

func (fakeSanitizer) Sanitize(ctx context.Context, spanContent, spanToolName string) (string, error) {
	return spanContent, nil
}

func buildCounter(builds *int) func(tripline.Config) *tripline.Guard {
	return func(cfg tripline.Config) *tripline.Guard {
		*builds++
		return tripline.New(fakeProxy{}, fakeAction{}, fakeSanitizer{}, tripline.WithMarginTau(cfg.MarginTau))
	}
}

func TestNewLoadsInitialGuard(t *testing.T) {
	var builds int
	w, err := New("", buildCounter(&builds), nil)
	if err != nil {
		t.Fatal(err)
	}
	if builds != 1 {
		t.Fatalf("expected 1 initial build, got %d", builds)
	}
	if w.Guard() == nil {
		t.Fatal("expected a non-nil Guard after construction")
	}
}

func TestEmptyPathNeverWatches(t *testing.T) {
	var builds int
	w, err := New("", buildCounter(&builds), nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("expected Run to return nil on context cancellation, got %v", err)
	}
	if builds != 1 {
		t.Fatalf("expected no reload without a watched path, got %d builds", builds)
	}
}

func TestWriteTriggersRebuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.yaml")
	if err := os.WriteFile(path, []byte("margin_tau: 0.1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var builds int
	w, err := New(path, buildCounter(&builds), nil)
	if err != nil {
		t.Fatal(err)
	}
	if builds != 1 {
		t.Fatalf("expected 1 initial build, got %d", builds)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("margin_tau: 0.5\n"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(900 * time.Millisecond)
	cancel()

	if builds < 2 {
		t.Fatalf("expected at least 2 builds after a config write, got %d", builds)
	}
}

func TestReloadErrorKeepsPreviousGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.yaml")
	if err := os.WriteFile(path, []byte("margin_tau: 0.1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var builds int
	var gotErr error
	w, err := New(path, buildCounter(&builds), func(e error) { gotErr = e })
	if err != nil {
		t.Fatal(err)
	}
	first := w.Guard()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	// on_attribution_failure must be "passthrough" or "block"; this value
	// fails config validation and should not replace the active Guard.
	if err := os.WriteFile(path, []byte("on_attribution_failure: bogus\n"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(900 * time.Millisecond)
	cancel()

	if gotErr == nil {
		t.Fatal("expected onErr to be called for an invalid config")
	}
	if w.Guard() != first {
		t.Fatal("expected the previous Guard to remain active after a failed reload")
	}
}
