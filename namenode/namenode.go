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

// Package namenode models the client-side view of the metadata master: the
// data types that flow over the wire, and the RPC surface FastCopy consumes
// from it (spec.md §6). The namenode service itself is out of scope; this
// package only speaks the client end of the protocol, the way gdfs's
// datanode package dialed NameNode.* methods with net/rpc.
package namenode

import "fmt"

// NamespaceId tags a block with its owning namespace in a federated
// (multi-namespace) namenode. Zero means "not federated".
type NamespaceId int64

// BlockId is the opaque identifier a namenode assigns to a block.
// Equality is by ID; GenerationStamp/NumBytes ride along for the RPC but
// don't participate in identity.
type BlockId struct {
	ID              string
	GenerationStamp int64
	NumBytes        int64
}

// Equal compares two BlockIds by identifier only.
func (b BlockId) Equal(o BlockId) bool { return b.ID == o.ID }

func (b BlockId) String() string { return b.ID }

// DatanodeRef is a datanode's stable identity (host:port) plus the routable
// information a client needs to reach it.
type DatanodeRef struct {
	Hostname     string
	Port         int
	TransferPort int
	StorageID    string
}

// Identity returns the host:port string that is this datanode's equality
// key throughout FastCopy (connection cache, error registry).
func (d DatanodeRef) Identity() string {
	return fmt.Sprintf("%s:%d", d.Hostname, d.Port)
}

// LocatedBlock pairs a block with the ordered list of datanodes holding a
// replica, plus its position within the file.
type LocatedBlock struct {
	Block     BlockId
	Namespace NamespaceId
	Locs      []DatanodeRef
	Offset    int64
	Length    int64
}

// FileAttrs is the subset of a file's namenode-held metadata FastCopy needs
// to recreate the file at the destination: permission, replication factor,
// and block size, matching the arguments HDFS's own CreateRequestProto
// carries (see other_examples' colinmarc/hdfs file_writer.go).
type FileAttrs struct {
	Path        string
	Permission  uint32
	Replication int
	BlockSize   int64
	Length      int64
}

// Capabilities records which RPC shapes a namenode handle supports. FastCopy
// probes this once per constructed Proxy (spec.md §9) and picks the richest
// supported form.
type Capabilities struct {
	// Federated means the namenode is federation-aware: OpenAndFetchMetaInfo
	// and AddBlockAndFetchMetaInfo are available and carry a NamespaceId.
	Federated bool
	// StartPos means the richest AddBlockAndFetchMetaInfo shape accepts a
	// running start-offset argument.
	StartPos bool
}
