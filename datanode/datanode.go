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

// Package datanode models the client-side view of a storage node: the one
// RPC FastCopy issues against it (copy-block, spec.md §6) and the cache of
// live handles keyed by datanode identity (spec.md §4.3).
package datanode

import (
	"context"
	"errors"

	"github.com/WineChord/fastcopy/namenode"
)

// RPC is the datanode surface FastCopy consumes. A single synchronous
// call: it does not return until the destination datanode holds the
// replica.
type RPC interface {
	CopyBlock(ctx context.Context, src namenode.BlockId, srcNS namenode.NamespaceId,
		dst namenode.BlockId, dstNS namenode.NamespaceId, dstNode namenode.DatanodeRef,
		federated bool) error
	Close() error
}

// RemoteError marks a copy-block failure that originated on the far end of
// the RPC — i.e. on the destination datanode, per spec.md §4.2's
// attribution rule ("a remote error is attributed to the destination
// datanode; any other failure is attributed to the source datanode to
// which the client made its outbound call").
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string { return e.Err.Error() }
func (e *RemoteError) Unwrap() error { return e.Err }

// IsRemote reports whether err (however wrapped) is a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
