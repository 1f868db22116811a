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

package namenode

import "context"

// RPC is the logical namenode surface FastCopy consumes, spec.md §6. A
// concrete *Proxy speaks it over net/rpc; namenodetest.Fake speaks it
// in-process for tests.
type RPC interface {
	// GetFileInfo returns nil, nil if path doesn't exist.
	GetFileInfo(ctx context.Context, path string) (*FileAttrs, error)
	// GetBlockLocations is the legacy (non-federated) block listing call.
	GetBlockLocations(ctx context.Context, path string, offset, length int64) ([]LocatedBlock, error)
	// OpenAndFetchMetaInfo is the federation-aware equivalent; only called
	// when Capabilities().Federated is true.
	OpenAndFetchMetaInfo(ctx context.Context, path string, offset, length int64) ([]LocatedBlock, NamespaceId, error)
	// Create creates path as clientName, overwrite=true, createParent=true.
	Create(ctx context.Context, path string, attrs FileAttrs, clientName string) error
	// AddBlock is the legacy allocate call.
	AddBlock(ctx context.Context, path, clientName string, exclude, favored []DatanodeRef) (*LocatedBlock, error)
	// AddBlockAndFetchMetaInfo is the federation-aware allocate call; when
	// Capabilities().StartPos is true, startPos is honored, otherwise
	// ignored by the callee the way the "middle" RPC shape does.
	AddBlockAndFetchMetaInfo(ctx context.Context, path, clientName string, exclude, favored []DatanodeRef, startPos int64) (*LocatedBlock, NamespaceId, error)
	// Complete reports whether the destination file has committed.
	Complete(ctx context.Context, path, clientName string) (bool, error)
	Delete(ctx context.Context, path string, recursive bool) error
	RenewLease(ctx context.Context, clientName string) error
	// Capabilities is resolved once (at construction/first use) and cached
	// for the handle's lifetime, spec.md §9.
	Capabilities() Capabilities
	Close() error
}
