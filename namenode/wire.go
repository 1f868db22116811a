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

// The structs below are the net/rpc argument/reply pairs for each method in
// RPC, one pair per call the way gdfs's CommandArgs/CommandReply served
// every RunCommand dispatch — except here each logical operation gets its
// own typed pair instead of one do-everything struct, since the real
// ClientProtocol these model does the same.

type GetFileInfoArgs struct{ Path string }
type GetFileInfoReply struct {
	Exists bool
	Attrs  FileAttrs
}

type GetBlockLocationsArgs struct {
	Path          string
	Offset, Length int64
}
type GetBlockLocationsReply struct{ Blocks []LocatedBlock }

type OpenAndFetchMetaInfoArgs struct {
	Path          string
	Offset, Length int64
}
type OpenAndFetchMetaInfoReply struct {
	Blocks    []LocatedBlock
	Namespace NamespaceId
}

type CreateArgs struct {
	Path           string
	Attrs          FileAttrs
	ClientName     string
	Overwrite      bool
	CreateParent   bool
}
type CreateReply struct{}

type AddBlockArgs struct {
	Path       string
	ClientName string
	Exclude    []DatanodeRef
	Favored    []DatanodeRef
}
type AddBlockReply struct{ Block LocatedBlock }

type AddBlockAndFetchMetaInfoArgs struct {
	Path       string
	ClientName string
	Exclude    []DatanodeRef
	Favored    []DatanodeRef
	StartPos   int64
}
type AddBlockAndFetchMetaInfoReply struct {
	Block     LocatedBlock
	Namespace NamespaceId
}

type CompleteArgs struct {
	Path       string
	ClientName string
}
type CompleteReply struct{ Done bool }

type DeleteArgs struct {
	Path      string
	Recursive bool
}
type DeleteReply struct{}

type RenewLeaseArgs struct{ ClientName string }
type RenewLeaseReply struct{}

type GetCapabilitiesArgs struct{}
type GetCapabilitiesReply struct{ Capabilities Capabilities }
