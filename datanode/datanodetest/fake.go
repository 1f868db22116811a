// Package datanodetest provides an in-process datanode.RPC fake for
// end-to-end tests: a shared node that records every copy-block call and
// can be told to fail specific ones, remotely or locally.
package datanodetest

import (
	"context"
	"sync"

	"github.com/WineChord/fastcopy/datanode"
	"github.com/WineChord/fastcopy/namenode"
)

// Call records one CopyBlock invocation.
type Call struct {
	Src, Dst namenode.BlockId
	SrcNode  namenode.DatanodeRef
	DstNode  namenode.DatanodeRef
}

// Fake stands in for every datanode in a test cluster: blockcopy.Task only
// ever dials the source node and asks it to push to dstNode, so one fake
// shared across all identities is enough to observe every call.
type Fake struct {
	mu     sync.Mutex
	calls  []Call
	closed map[string]bool

	// Fail, if set, is consulted for every call; a non-nil error fails
	// that copy. remote selects whether the failure is wrapped as a
	// RemoteError (attributed to the destination) or returned plain
	// (attributed to the source).
	Fail func(c Call) (remote bool, err error)
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{closed: make(map[string]bool)}
}

// Dialer satisfies datanode.Dialer; every ref resolves to a new handle
// bound to that node and backed by this one Fake, so the fake accumulates
// calls from the whole cluster.
func (f *Fake) Dialer(ref namenode.DatanodeRef) (datanode.RPC, error) {
	return &handle{fake: f, node: ref}, nil
}

type handle struct {
	fake *Fake
	node namenode.DatanodeRef
}

func (h *handle) CopyBlock(_ context.Context, src namenode.BlockId, _ namenode.NamespaceId,
	dst namenode.BlockId, _ namenode.NamespaceId, dstNode namenode.DatanodeRef, _ bool) error {
	call := Call{Src: src, Dst: dst, SrcNode: h.node, DstNode: dstNode}

	h.fake.mu.Lock()
	h.fake.calls = append(h.fake.calls, call)
	failFn := h.fake.Fail
	h.fake.mu.Unlock()

	if failFn == nil {
		return nil
	}
	remote, err := failFn(call)
	if err == nil {
		return nil
	}
	if remote {
		return &datanode.RemoteError{Err: err}
	}
	return err
}

func (h *handle) Close() error {
	h.fake.mu.Lock()
	defer h.fake.mu.Unlock()
	h.fake.closed[h.node.Identity()] = true
	return nil
}

// Calls returns every CopyBlock call observed so far, in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// ClosedNodes returns the identities of every node whose handle was closed.
func (f *Fake) ClosedNodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, c := range f.closed {
		if c {
			ids = append(ids, id)
		}
	}
	return ids
}
