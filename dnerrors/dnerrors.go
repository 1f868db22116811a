// Package dnerrors implements the process-wide per-datanode error counter
// and threshold gate from spec.md §4.2: a BlockCopyTask consults this
// before issuing its RPC, and either side (source or destination) over
// threshold aborts the task without contacting any node.
package dnerrors

import "sync"

// Registry is a concurrent map of datanode identity (DatanodeRef.Identity())
// to its accrued error count. Counts are monotonically non-decreasing and
// are never time-decayed within a run (spec.md §7).
type Registry struct {
	mu     sync.Mutex
	counts map[string]int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{counts: make(map[string]int)}
}

// Increment bumps node's error count and returns the new value.
func (r *Registry) Increment(node string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[node]++
	return r.counts[node]
}

// Get returns node's current error count.
func (r *Registry) Get(node string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[node]
}

// OverThreshold reports whether node has accrued strictly more than max
// errors, the exact quarantine condition from spec.md §4.2.
func (r *Registry) OverThreshold(node string, max int) bool {
	return r.Get(node) > max
}
