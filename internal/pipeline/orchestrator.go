package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/browseable/pageadapt/internal/adapt"
	"github.com/browseable/pageadapt/internal/chunker"
	"github.com/browseable/pageadapt/internal/config"
	"github.com/browseable/pageadapt/internal/dom"
	"github.com/browseable/pageadapt/internal/overlay"
	"github.com/browseable/pageadapt/internal/prefs"
)

// pageState tracks the in-flight cycle and the monotonic sequence number for
// one page context.
type pageState struct {
	seq     uint64
	current *Cycle
}

// Orchestrator manages the page adaptation pipeline.
type Orchestrator struct {
	cycles   *CycleStore
	queue    chan *Cycle
	model    *adapt.Client
	prefs    *prefs.Client
	fetcher  dom.ImageFetcher
	policies *adapt.Policies
	log      *slog.Logger
	cfg      config.Config
	chunkCfg chunker.Config

	mu    sync.Mutex
	pages map[string]*pageState

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(cfg config.Config, model *adapt.Client, pc *prefs.Client, fetcher dom.ImageFetcher, policies *adapt.Policies, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cycles:   NewCycleStore(cfg.CycleTTL),
		queue:    make(chan *Cycle, cfg.MaxQueueSize),
		model:    model,
		prefs:    pc,
		fetcher:  fetcher,
		policies: policies,
		log:      log,
		cfg:      cfg,
		chunkCfg: chunker.Config{TokenBudget: cfg.TokenBudget},
		pages:    make(map[string]*pageState),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case cycle, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(cycle)
				}
			}
		}()
	}

	// Cycle store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cycles.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new adaptation cycle. A cycle already in flight for the
// same page context is cancelled first; the new cycle takes the next
// sequence number so the superseded one can never apply over it.
func (o *Orchestrator) Submit(cycle *Cycle) error {
	o.mu.Lock()
	st, ok := o.pages[cycle.PageKey()]
	if !ok {
		st = &pageState{}
		o.pages[cycle.PageKey()] = st
	}
	prev := st.current
	st.seq++
	cycle.Seq = st.seq
	st.current = cycle
	o.mu.Unlock()

	if prev != nil && !prev.CurrentStatus().Terminal() {
		o.log.Info("superseding in-flight cycle", "cycle_id", prev.ID, "page_url", cycle.PageURL)
		prev.Cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cycle.bind(ctx, cancel)
	o.cycles.Put(cycle)

	select {
	case o.queue <- cycle:
		return nil
	default:
		cycle.AddError("queue full")
		cycle.SetStatus(StatusFailed)
		return fmt.Errorf("cycle queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Apply commits a cycle's payload, refusing stale results. A cycle is stale
// when a newer cycle has since been submitted for the same page context.
func (o *Orchestrator) Apply(cycle *Cycle, status Status, payload overlay.Payload) bool {
	o.mu.Lock()
	st, ok := o.pages[cycle.PageKey()]
	stale := !ok || st.seq != cycle.Seq
	o.mu.Unlock()
	if stale {
		o.log.Info("dropping stale cycle result", "cycle_id", cycle.ID, "seq", cycle.Seq)
		cycle.Cancel()
		return false
	}
	return cycle.setPayload(payload, status)
}

// CancelCycle cancels a cycle by id. Returns false when unknown.
func (o *Orchestrator) CancelCycle(id string) bool {
	c := o.cycles.Get(id)
	if c == nil {
		return false
	}
	c.Cancel()
	return true
}

// GetCycle returns a cycle by ID.
func (o *Orchestrator) GetCycle(id string) *Cycle {
	return o.cycles.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Policies returns the policy registry for direct use by API handlers.
func (o *Orchestrator) Policies() *adapt.Policies {
	return o.policies
}

// ModelStats returns the model client's latency snapshot.
func (o *Orchestrator) ModelStats() adapt.StatsSnapshot {
	if o.model == nil {
		return adapt.StatsSnapshot{}
	}
	return o.model.Stats()
}
