package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/browseable/pageadapt/internal/overlay"
)

// Status tracks one adaptation cycle through the pipeline.
type Status string

const (
	StatusQueued          Status = "queued"
	StatusExtracting      Status = "extracting"
	StatusChunking        Status = "chunking"
	StatusAwaitingModel   Status = "awaiting_model"
	StatusReconciling     Status = "reconciling"
	StatusApplied         Status = "applied"
	StatusAppliedFallback Status = "applied_fallback"
	StatusCancelled       Status = "cancelled"
	StatusFailed          Status = "failed"
)

// Terminal reports whether a status ends the cycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusApplied, StatusAppliedFallback, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Cycle is one page-adaptation run. All pipeline state for the run hangs off
// the cycle and is discarded when it ends; nothing survives into the next
// cycle except the user's stored preferences.
type Cycle struct {
	mu sync.Mutex

	ID      string `json:"cycle_id"`
	UserID  string `json:"user_id"`
	PageURL string `json:"page_url"`

	// Seq increases monotonically per page context. A stale cycle's result
	// is refused at apply time by comparing Seq against the context's
	// current value.
	Seq uint64 `json:"seq"`

	Status    Status    `json:"status"`
	Neurotype string    `json:"neurotype"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// NeurotypeOverride, when set, wins over the stored preference.
	NeurotypeOverride string `json:"-"`
	// TokenBudget of 0 means the configured default.
	TokenBudget int `json:"-"`

	// Internal: not serialized.
	html    []byte
	payload *overlay.Payload
	errors  []string
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewCycle builds a cycle for one page context.
func NewCycle(userID, pageURL string, html []byte) *Cycle {
	now := time.Now()
	return &Cycle{
		ID:        cycleID(userID, pageURL, now),
		UserID:    userID,
		PageURL:   pageURL,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		html:      html,
	}
}

func cycleID(userID, pageURL string, now time.Time) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", userID, pageURL, now.UnixNano())))
	return fmt.Sprintf("%x", h[:])[:20]
}

// PageKey identifies a page context: at most one cycle may be in flight per
// key.
func (c *Cycle) PageKey() string {
	return c.UserID + "|" + c.PageURL
}

func (c *Cycle) bind(ctx context.Context, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
	c.cancel = cancel
}

// Context returns the cycle's cancellation context.
func (c *Cycle) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// SetStatus advances the cycle. Terminal states are sticky: once the cycle
// is cancelled or applied, later transitions are ignored.
func (c *Cycle) SetStatus(status Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Status.Terminal() {
		return false
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return true
}

// CurrentStatus returns the cycle's status.
func (c *Cycle) CurrentStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Status
}

// Cancel moves the cycle to Cancelled (if not already terminal) and stops
// any in-flight work. Partial chunk accumulation is discarded by the worker
// when it observes the cancelled context.
func (c *Cycle) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	if !c.Status.Terminal() {
		c.Status = StatusCancelled
		c.UpdatedAt = time.Now()
	}
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SetNeurotype records the policy resolved for this cycle.
func (c *Cycle) SetNeurotype(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Neurotype = id
	c.UpdatedAt = time.Now()
}

// AddError records a contained per-item error.
func (c *Cycle) AddError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
	c.UpdatedAt = time.Now()
}

// HTML returns the raw page bytes for processing.
func (c *Cycle) HTML() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

func (c *Cycle) setPayload(p overlay.Payload, status Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Status.Terminal() {
		return false
	}
	c.payload = &p
	c.Status = status
	c.UpdatedAt = time.Now()
	return true
}

// Snapshot is a read-only, JSON-safe copy of cycle state.
type Snapshot struct {
	ID        string           `json:"cycle_id"`
	UserID    string           `json:"user_id"`
	PageURL   string           `json:"page_url"`
	Status    Status           `json:"status"`
	Neurotype string           `json:"neurotype,omitempty"`
	Errors    []string         `json:"errors"`
	Payload   *overlay.Payload `json:"payload,omitempty"`
}

// Snapshot returns a copy safe to serialize from any goroutine.
func (c *Cycle) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := c.errors
	if errs == nil {
		errs = []string{}
	}
	return Snapshot{
		ID:        c.ID,
		UserID:    c.UserID,
		PageURL:   c.PageURL,
		Status:    c.Status,
		Neurotype: c.Neurotype,
		Errors:    errs,
		Payload:   c.payload,
	}
}

// CycleStore is a thread-safe in-memory cycle registry with TTL eviction.
type CycleStore struct {
	mu     sync.Mutex
	cycles map[string]*Cycle
	ttl    time.Duration
}

func NewCycleStore(ttl time.Duration) *CycleStore {
	return &CycleStore{
		cycles: make(map[string]*Cycle),
		ttl:    ttl,
	}
}

func (s *CycleStore) Put(c *Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles[c.ID] = c
}

func (s *CycleStore) Get(id string) *Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles[id]
}

// Cleanup removes expired cycles.
func (s *CycleStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, c := range s.cycles {
		c.mu.Lock()
		stale := now.Sub(c.UpdatedAt) > s.ttl
		c.mu.Unlock()
		if stale {
			delete(s.cycles, id)
		}
	}
}
