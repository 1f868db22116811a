// Package namenodetest provides an in-process namenode.RPC fake for
// end-to-end tests, playing both the source and destination role without
// any real RPC transport.
package namenodetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/WineChord/fastcopy/namenode"
)

type fileState struct {
	attrs             namenode.FileAttrs
	blocks            []namenode.LocatedBlock
	exists            bool
	addBlockAttempts  int
	completeAttempts  int
	committed         bool
}

// Fake is a single namenode's worth of in-memory state.
type Fake struct {
	mu    sync.Mutex
	caps  namenode.Capabilities
	files map[string]*fileState

	nextBlockNum int
	renewCalls   int32
	deleted      []string
	closed       bool

	// AddBlockErr, set by a test, is consulted before every addBlock-family
	// call with the 1-based attempt number for that block; a non-nil
	// return fails the call.
	AddBlockErr func(path string, attempt int) error

	// CompleteReady, if set, decides whether Complete reports committed on
	// a given 1-based attempt. Defaults to true on the first attempt.
	CompleteReady func(path string, attempt int) bool

	// Place computes replica locations for a newly allocated block from
	// its favoredNodes hint. Defaults to the identity function, simulating
	// perfect local placement.
	Place func(favored []namenode.DatanodeRef) []namenode.DatanodeRef
}

// New returns an empty Fake advertising caps.
func New(caps namenode.Capabilities) *Fake {
	return &Fake{caps: caps, files: make(map[string]*fileState)}
}

// Seed pre-populates path as an existing file with the given attrs and
// block list, as if some earlier write had already completed it — the
// source side of a copy.
func (f *Fake) Seed(path string, attrs namenode.FileAttrs, blocks []namenode.LocatedBlock) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = &fileState{attrs: attrs, blocks: blocks, exists: true, committed: true}
}

func (f *Fake) GetFileInfo(_ context.Context, path string) (*namenode.FileAttrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.files[path]
	if !ok || !s.exists {
		return nil, nil
	}
	attrs := s.attrs
	return &attrs, nil
}

func (f *Fake) GetBlockLocations(_ context.Context, path string, _, _ int64) ([]namenode.LocatedBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return append([]namenode.LocatedBlock(nil), s.blocks...), nil
}

func (f *Fake) OpenAndFetchMetaInfo(ctx context.Context, path string, offset, length int64) ([]namenode.LocatedBlock, namenode.NamespaceId, error) {
	blocks, err := f.GetBlockLocations(ctx, path, offset, length)
	return blocks, 0, err
}

func (f *Fake) Create(_ context.Context, path string, attrs namenode.FileAttrs, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = &fileState{attrs: attrs, exists: true}
	return nil
}

func (f *Fake) AddBlock(_ context.Context, path, _ string, _, favored []namenode.DatanodeRef) (*namenode.LocatedBlock, error) {
	lb, _, err := f.allocate(path, favored)
	return lb, err
}

func (f *Fake) AddBlockAndFetchMetaInfo(_ context.Context, path, _ string, _, favored []namenode.DatanodeRef, _ int64) (*namenode.LocatedBlock, namenode.NamespaceId, error) {
	return f.allocate(path, favored)
}

func (f *Fake) allocate(path string, favored []namenode.DatanodeRef) (*namenode.LocatedBlock, namenode.NamespaceId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.files[path]
	if !ok || !s.exists {
		return nil, 0, fmt.Errorf("no such file: %s", path)
	}
	s.addBlockAttempts++
	if f.AddBlockErr != nil {
		if err := f.AddBlockErr(path, s.addBlockAttempts); err != nil {
			return nil, 0, err
		}
	}
	locs := favored
	if f.Place != nil {
		locs = f.Place(favored)
	}
	f.nextBlockNum++
	lb := namenode.LocatedBlock{
		Block: namenode.BlockId{ID: fmt.Sprintf("blk-%d", f.nextBlockNum)},
		Locs:  append([]namenode.DatanodeRef(nil), locs...),
	}
	s.blocks = append(s.blocks, lb)
	s.addBlockAttempts = 0
	return &lb, 0, nil
}

func (f *Fake) Complete(_ context.Context, path, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.files[path]
	if !ok || !s.exists {
		return false, fmt.Errorf("no such file: %s", path)
	}
	s.completeAttempts++
	ready := true
	if f.CompleteReady != nil {
		ready = f.CompleteReady(path, s.completeAttempts)
	}
	if ready {
		s.committed = true
	}
	return ready, nil
}

func (f *Fake) Delete(_ context.Context, path string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *Fake) RenewLease(_ context.Context, _ string) error {
	atomic.AddInt32(&f.renewCalls, 1)
	return nil
}

func (f *Fake) Capabilities() namenode.Capabilities { return f.caps }

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Deleted returns every path ever passed to Delete, in call order.
func (f *Fake) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// Closed reports whether Close has been called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// RenewCalls reports how many times RenewLease has been called.
func (f *Fake) RenewCalls() int32 { return atomic.LoadInt32(&f.renewCalls) }

// Committed reports whether path has reached a committed state.
func (f *Fake) Committed(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.files[path]
	return ok && s.committed
}

// Blocks returns the current block list for path, for assertions.
func (f *Fake) Blocks(path string) []namenode.LocatedBlock {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.files[path]
	if !ok {
		return nil
	}
	return append([]namenode.LocatedBlock(nil), s.blocks...)
}
