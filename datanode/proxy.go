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
	"context"
	"net/rpc"

	"github.com/pkg/errors"

	"github.com/WineChord/fastcopy/namenode"
)

// CopyBlockArgs is the net/rpc argument for the datanode's copy-block
// operation, federation-aware: NamespaceIds are only meaningful when
// Federated is true, matching the legacy-vs-federation split in every
// other namenode call (spec.md §6).
type CopyBlockArgs struct {
	SrcBlock  namenode.BlockId
	SrcNS     namenode.NamespaceId
	DstBlock  namenode.BlockId
	DstNS     namenode.NamespaceId
	DstNode   namenode.DatanodeRef
	Federated bool
	Async     bool
}

type CopyBlockReply struct{}

// Proxy is the net/rpc-backed client-side datanode handle, dialed the same
// way gdfs's client dialed DataNode.SendBlk/RequestBlk: rpc.DialHTTP to the
// datanode's address, then one blocking Call.
type Proxy struct {
	addr string
	c    *rpc.Client
}

// Dial connects to a datanode listening at addr (host:port).
func Dial(ref namenode.DatanodeRef) (RPC, error) {
	addr := ref.Identity()
	c, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial datanode %s", addr)
	}
	return &Proxy{addr: addr, c: c}, nil
}

// CopyBlock calls the source datanode's copy-block RPC, instructing it to
// push a local replica transfer to dstNode. It blocks until the RPC
// returns — the destination datanode already has the replica by then.
func (p *Proxy) CopyBlock(ctx context.Context, src namenode.BlockId, srcNS namenode.NamespaceId,
	dst namenode.BlockId, dstNS namenode.NamespaceId, dstNode namenode.DatanodeRef, federated bool) error {
	args := &CopyBlockArgs{
		SrcBlock: src, SrcNS: srcNS, DstBlock: dst, DstNS: dstNS,
		DstNode: dstNode, Federated: federated,
	}
	done := make(chan error, 1)
	go func() { done <- p.c.Call("DataNode.CopyBlock", args, &CopyBlockReply{}) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err == nil {
		return nil
	}
	if _, ok := err.(*rpc.ServerError); ok {
		// The called (source) datanode's own handler returned this error:
		// it happened on the far end of the call, while that datanode was
		// transferring to the destination, and is attributed to the
		// destination.
		return &RemoteError{Err: err}
	}
	// Any other failure (dial already established, but the call itself
	// failed — a broken connection, a local marshalling error) happened on
	// the client's outbound path to the source datanode.
	return errors.Wrapf(err, "copyBlock %s -> %s", p.addr, dstNode.Identity())
}

func (p *Proxy) Close() error {
	return p.c.Close()
}
