// Package filestatus implements the per-destination-file block-completion
// counter from spec.md §4.2 (numbered §3 in the data model): an observable
// {path, totalBlocks, blocksDone} surface, plus the condition-variable
// backpressure signal FileCopyJob waits on between blocks (spec.md §9:
// "backpressure by polling ... should be reexpressed as a condition
// variable / notification").
package filestatus

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Status is one destination file's block-completion counter.
type Status struct {
	Path        string
	TotalBlocks int

	mu         sync.Mutex
	cond       *sync.Cond
	blocksDone int
	err        error // sticky: set once, on first block-level failure
}

// New creates a Status for a file whose total block count is already known
// (the source block list length). filecopy.Job creates it through
// Registry.GetOrCreate at the start of its block loop, once it knows how
// many blocks it will copy — see DESIGN.md for why totalBlocks must be
// known up front rather than literally "on first completed block".
func New(path string, totalBlocks int) *Status {
	s := &Status{Path: path, TotalBlocks: totalBlocks}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// BlockDone records one block reaching its GOOD verdict. Called exactly
// once per distinct block by blockcopy.Task, via the blockstatus registry's
// at-most-once Record.
func (s *Status) BlockDone() {
	s.mu.Lock()
	s.blocksDone++
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Fail records a block-level fatal error (all replicas failed). Only the
// first call sets the sticky error; later calls are no-ops, since a file
// only needs to abort once.
func (s *Status) Fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Err returns the sticky fatal error, if any.
func (s *Status) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns the current (blocksDone, totalBlocks) pair.
func (s *Status) Snapshot() (done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocksDone, s.TotalBlocks
}

// WaitUntilDone blocks the caller until blocksDone reaches target, the
// sticky error is set, or ctx is cancelled. This is the backpressure point
// in spec.md §4.5 step 3e: "before allocating the next block, wait until
// FileStatus.blocksDone == blocksAdded".
func (s *Status) WaitUntilDone(ctx context.Context, target int) error {
	// A cond.Wait() only wakes on Broadcast/Signal, so ctx cancellation by
	// itself would never wake the waiter below. This goroutine's sole job
	// is turning "ctx done" into a Broadcast; stop unblocks it once this
	// call returns by whichever path.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-stop:
		}
	}()

	s.mu.Lock()
	for s.blocksDone < target && s.err == nil && ctx.Err() == nil {
		s.cond.Wait()
	}
	blockErr, done := s.err, s.blocksDone
	s.mu.Unlock()

	if blockErr != nil {
		return errors.Wrap(blockErr, "block fan-out failed")
	}
	if done < target {
		return ctx.Err()
	}
	return nil
}

// Registry maps destination path to its Status, created lazily and
// surviving until orchestrator teardown (it's the status-reporting
// surface, spec.md §3), except that a failed copy's cleanup removes its
// entry through Delete.
type Registry struct {
	mu sync.Mutex
	m  map[string]*Status
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]*Status)}
}

// GetOrCreate returns the Status for path, creating it with totalBlocks if
// absent. Subsequent calls for the same path return the existing entry
// (totalBlocks is ignored on a hit).
func (r *Registry) GetOrCreate(path string, totalBlocks int) *Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[path]; ok {
		return s
	}
	s := New(path, totalBlocks)
	r.m[path] = s
	return s
}

// Get returns the Status for path, if any.
func (r *Registry) Get(path string) (*Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[path]
	return s, ok
}

// Delete removes path's Status, e.g. after a failed copy's cleanup.
func (r *Registry) Delete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, path)
}
