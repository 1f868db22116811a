// Copyright 2020 Qizhou Guo
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datanode

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/WineChord/fastcopy/namenode"
)

// Dialer constructs a live RPC handle to a datanode. Production code wires
// Dial (net/rpc); tests wire a func that returns an in-memory fake.
type Dialer func(ref namenode.DatanodeRef) (RPC, error)

// Cache is the shared, lazily-built pool of datanode RPC handles from
// spec.md §4.3, keyed by DatanodeRef.Identity(). Lookup is two-phase: an
// optimistic read-locked check, and on miss an exclusive section that
// re-checks before dialing and inserting — the double-checked pattern the
// spec calls for, so two goroutines racing to reach the same new datanode
// don't both dial.
type Cache struct {
	dial  Dialer
	mu    sync.RWMutex
	conns map[string]RPC
}

// NewCache returns an empty cache that dials new connections with dial.
func NewCache(dial Dialer) *Cache {
	return &Cache{dial: dial, conns: make(map[string]RPC)}
}

// Get returns the cached handle for ref, dialing and inserting one if
// absent.
func (c *Cache) Get(ref namenode.DatanodeRef) (RPC, error) {
	id := ref.Identity()

	c.mu.RLock()
	conn, ok := c.conns[id]
	c.mu.RUnlock()
	if ok {
		return conn, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[id]; ok {
		return conn, nil
	}
	conn, err := c.dial(ref)
	if err != nil {
		return nil, errors.Wrapf(err, "dial datanode %s", id)
	}
	c.conns[id] = conn
	return conn, nil
}

// CloseAll closes every cached handle and empties the cache. Called once,
// at orchestrator teardown.
func (c *Cache) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for id, conn := range c.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close datanode %s", id)
		}
		delete(c.conns, id)
	}
	return first
}

// Len reports how many connections are currently cached, for tests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns)
}
