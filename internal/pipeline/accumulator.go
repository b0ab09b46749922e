package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/browseable/pageadapt/internal/page"
)

// Accumulator gathers chunks delivered out of order, possibly more than
// once, and releases them as a complete ordered set only when every expected
// chunk has arrived exactly once.
type Accumulator struct {
	mu       sync.Mutex
	expected int
	chunks   map[int]page.Chunk
	done     chan struct{}
}

func NewAccumulator(expected int) *Accumulator {
	return &Accumulator{
		expected: expected,
		chunks:   make(map[int]page.Chunk),
		done:     make(chan struct{}),
	}
}

// Deliver records a chunk. Duplicate and out-of-range deliveries are
// rejected without advancing the count, which makes at-least-once delivery
// safe. Returns true when the chunk was accepted.
func (a *Accumulator) Deliver(c page.Chunk) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c.ID < 1 || c.ID > a.expected {
		return false
	}
	if _, ok := a.chunks[c.ID]; ok {
		return false
	}
	a.chunks[c.ID] = c
	if len(a.chunks) == a.expected {
		close(a.done)
	}
	return true
}

// Complete reports whether all expected chunks have arrived.
func (a *Accumulator) Complete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.chunks) == a.expected
}

// Wait blocks until all chunks have arrived or the context ends, then
// returns the chunks in id order.
func (a *Accumulator) Wait(ctx context.Context) ([]page.Chunk, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.done:
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]page.Chunk, 0, len(a.chunks))
	for _, c := range a.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
