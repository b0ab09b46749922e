package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/browseable/pageadapt/internal/adapt"
	"github.com/browseable/pageadapt/internal/chunker"
	"github.com/browseable/pageadapt/internal/dom"
	"github.com/browseable/pageadapt/internal/overlay"
	"github.com/browseable/pageadapt/internal/prefs"
)

// Worker processes a single adaptation cycle end to end.
type Worker struct {
	o   *Orchestrator
	log *slog.Logger
}

func NewWorker(o *Orchestrator, log *slog.Logger) *Worker {
	return &Worker{o: o, log: log}
}

// Process runs the full adaptation pipeline for a cycle. Every exit path
// leaves the cycle in a terminal state.
func (w *Worker) Process(cycle *Cycle) {
	log := w.log.With("cycle_id", cycle.ID, "user_id", cycle.UserID, "page_url", cycle.PageURL)
	ctx := cycle.Context()

	// Phase 1: resolve the neurotype policy. A preference store failure is
	// contained: the cycle proceeds on defaults.
	p, err := w.o.prefs.Get(ctx, cycle.UserID)
	if err != nil {
		log.Warn("preference lookup failed, using defaults", "error", err)
		cycle.AddError(fmt.Sprintf("preferences: %s", err))
	}
	neurotype := p.Neurotype
	if cycle.NeurotypeOverride != "" {
		neurotype = cycle.NeurotypeOverride
	}
	policy := w.o.policies.Get(neurotype)
	cycle.SetNeurotype(policy.ID)

	// Phase 2: extract the page layout.
	if !cycle.SetStatus(StatusExtracting) {
		return
	}
	extractor := &dom.Extractor{
		Log:                log,
		MaxConcurrentFetch: w.o.cfg.MaxConcurrentImageFetch,
	}
	if w.o.cfg.InlineImages {
		extractor.Fetcher = w.o.fetcher
	}
	layout, err := extractor.ExtractLayout(ctx, bytes.NewReader(cycle.HTML()), cycle.PageURL)
	if err != nil {
		w.fail(cycle, log, "extract", err)
		return
	}
	if len(layout.Sections) == 0 {
		log.Info("no adaptable content on page")
		w.o.Apply(cycle, StatusApplied, overlay.Payload{
			State:   overlay.StateNoText,
			Message: overlay.NoContentMessage,
			Result:  adapt.Result{ElementChanges: []adapt.ElementChange{}},
		})
		return
	}

	// Phase 3: chunk sections under the token budget.
	if !cycle.SetStatus(StatusChunking) {
		return
	}
	chunkCfg := w.o.chunkCfg
	if cycle.TokenBudget > 0 {
		chunkCfg.TokenBudget = cycle.TokenBudget
	}
	chunks := chunker.ChunkSections(layout.Sections, chunkCfg)
	log.Info("chunked page", "sections", len(layout.Sections), "chunks", len(chunks))

	// Chunks are handed to the accumulator concurrently and released as a
	// complete ordered set. Duplicate deliveries are absorbed, so the
	// producers need no coordination beyond the barrier itself.
	acc := NewAccumulator(len(chunks))
	var wg sync.WaitGroup
	for _, c := range chunks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Deliver(c)
		}()
	}
	wg.Wait()
	ordered, err := acc.Wait(ctx)
	if err != nil {
		w.fail(cycle, log, "chunk barrier", err)
		return
	}

	// Phase 4: one model call covers every chunk.
	if !cycle.SetStatus(StatusAwaitingModel) {
		return
	}
	prompt := adapt.BuildPrompt(ordered, policy)
	raw, err := w.generate(ctx, log, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			cycle.Cancel()
			return
		}
		log.Warn("model call failed, applying fallback", "error", err)
		cycle.AddError(fmt.Sprintf("model: %s", err))
		w.o.Apply(cycle, StatusAppliedFallback, overlay.Build(adapt.FallbackResult(policy), true))
		return
	}

	// Phase 5: reconcile the response against the extracted page.
	if !cycle.SetStatus(StatusReconciling) {
		return
	}
	result := adapt.Reconcile(raw, ordered, policy, log)
	result = stripDisabled(result, p)

	if w.o.Apply(cycle, StatusApplied, overlay.Build(result, false)) {
		log.Info("adaptation applied",
			"element_changes", len(result.ElementChanges),
			"style_changes", len(result.StyleChanges),
			"layout_changes", len(result.LayoutChanges))
	}
}

// generate calls the model with retry on transient failures.
func (w *Worker) generate(ctx context.Context, log *slog.Logger, prompt string) (string, error) {
	var raw string
	var lastErr error
	for attempt := range MaxRetries {
		raw, lastErr = w.o.model.Generate(ctx, prompt)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable model error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return raw, lastErr
}

// stripDisabled removes change categories the user has switched off.
func stripDisabled(result adapt.Result, p prefs.Preferences) adapt.Result {
	if !p.Enabled(prefs.FeatureTextSimplify) {
		result.ElementChanges = []adapt.ElementChange{}
	}
	if !p.Enabled(prefs.FeatureStyleAdjust) {
		result.StyleChanges = []adapt.StyleChange{}
	}
	if !p.Enabled(prefs.FeatureLayoutAdjust) {
		result.LayoutChanges = []adapt.LayoutChange{}
	}
	return result
}

func (w *Worker) fail(cycle *Cycle, log *slog.Logger, phase string, err error) {
	if errors.Is(err, context.Canceled) {
		cycle.Cancel()
		return
	}
	log.Error(phase+" failed", "error", err)
	cycle.AddError(fmt.Sprintf("%s: %s", phase, err))
	cycle.SetStatus(StatusFailed)
}
