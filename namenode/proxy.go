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

import (
	"context"
	"net/rpc"
	"sync"

	"github.com/pkg/errors"

	"github.com/WineChord/fastcopy/errs"
)

// Proxy is the net/rpc-backed client-side namenode handle, dialed the way
// gdfs dialed NameNode.RunCommand: rpc.DialHTTP once, then one Call per
// logical operation.
type Proxy struct {
	addr string
	c    *rpc.Client

	once sync.Once
	caps Capabilities
	capErr error
}

// Dial connects to a namenode listening at addr (host:port), matching
// config.NameNodeAddress in the teacher.
func Dial(addr string) (*Proxy, error) {
	c, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial namenode %s", addr)
	}
	return &Proxy{addr: addr, c: c}, nil
}

func (p *Proxy) call(ctx context.Context, method string, args, reply any) error {
	done := make(chan error, 1)
	go func() { done <- p.c.Call("NameNode."+method, args, reply) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Proxy) GetFileInfo(ctx context.Context, path string) (*FileAttrs, error) {
	reply := &GetFileInfoReply{}
	if err := p.call(ctx, "GetFileInfo", &GetFileInfoArgs{Path: path}, reply); err != nil {
		return nil, errors.Wrapf(err, "getFileInfo %s", path)
	}
	if !reply.Exists {
		return nil, nil
	}
	return &reply.Attrs, nil
}

func (p *Proxy) GetBlockLocations(ctx context.Context, path string, offset, length int64) ([]LocatedBlock, error) {
	reply := &GetBlockLocationsReply{}
	args := &GetBlockLocationsArgs{Path: path, Offset: offset, Length: length}
	if err := p.call(ctx, "GetBlockLocations", args, reply); err != nil {
		return nil, errors.Wrapf(err, "getBlockLocations %s", path)
	}
	return reply.Blocks, nil
}

func (p *Proxy) OpenAndFetchMetaInfo(ctx context.Context, path string, offset, length int64) ([]LocatedBlock, NamespaceId, error) {
	reply := &OpenAndFetchMetaInfoReply{}
	args := &OpenAndFetchMetaInfoArgs{Path: path, Offset: offset, Length: length}
	if err := p.call(ctx, "OpenAndFetchMetaInfo", args, reply); err != nil {
		return nil, 0, errors.Wrapf(err, "openAndFetchMetaInfo %s", path)
	}
	return reply.Blocks, reply.Namespace, nil
}

func (p *Proxy) Create(ctx context.Context, path string, attrs FileAttrs, clientName string) error {
	args := &CreateArgs{
		Path:         path,
		Attrs:        attrs,
		ClientName:   clientName,
		Overwrite:    true,
		CreateParent: true,
	}
	if err := p.call(ctx, "Create", args, &CreateReply{}); err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	return nil
}

func (p *Proxy) AddBlock(ctx context.Context, path, clientName string, exclude, favored []DatanodeRef) (*LocatedBlock, error) {
	reply := &AddBlockReply{}
	args := &AddBlockArgs{Path: path, ClientName: clientName, Exclude: exclude, Favored: favored}
	if err := p.call(ctx, "AddBlock", args, reply); err != nil {
		return nil, classifyAllocateErr(err, path)
	}
	return &reply.Block, nil
}

func (p *Proxy) AddBlockAndFetchMetaInfo(ctx context.Context, path, clientName string, exclude, favored []DatanodeRef, startPos int64) (*LocatedBlock, NamespaceId, error) {
	reply := &AddBlockAndFetchMetaInfoReply{}
	args := &AddBlockAndFetchMetaInfoArgs{
		Path: path, ClientName: clientName, Exclude: exclude, Favored: favored, StartPos: startPos,
	}
	if err := p.call(ctx, "AddBlockAndFetchMetaInfo", args, reply); err != nil {
		return nil, 0, classifyAllocateErr(err, path)
	}
	return &reply.Block, reply.Namespace, nil
}

func (p *Proxy) Complete(ctx context.Context, path, clientName string) (bool, error) {
	reply := &CompleteReply{}
	args := &CompleteArgs{Path: path, ClientName: clientName}
	if err := p.call(ctx, "Complete", args, reply); err != nil {
		return false, errors.Wrapf(err, "complete %s", path)
	}
	return reply.Done, nil
}

func (p *Proxy) Delete(ctx context.Context, path string, recursive bool) error {
	args := &DeleteArgs{Path: path, Recursive: recursive}
	if err := p.call(ctx, "Delete", args, &DeleteReply{}); err != nil {
		return errors.Wrapf(err, "delete %s", path)
	}
	return nil
}

func (p *Proxy) RenewLease(ctx context.Context, clientName string) error {
	args := &RenewLeaseArgs{ClientName: clientName}
	if err := p.call(ctx, "RenewLease", args, &RenewLeaseReply{}); err != nil {
		return errors.Wrap(err, "renewLease")
	}
	return nil
}

// Capabilities probes, once, which RPC shapes this namenode supports
// (spec.md §9). The result is cached on the Proxy for its lifetime.
func (p *Proxy) Capabilities() Capabilities {
	p.once.Do(func() {
		reply := &GetCapabilitiesReply{}
		err := p.call(context.Background(), "GetCapabilities", &GetCapabilitiesArgs{}, reply)
		if err != nil {
			p.capErr = err
			return
		}
		p.caps = reply.Capabilities
	})
	return p.caps
}

func (p *Proxy) Close() error {
	return p.c.Close()
}

// classifyAllocateErr turns the remote "not replicated yet" condition into
// errs.ErrNotReplicatedYet so FileCopyJob can retry on it specifically,
// matching spec.md §4.5's allocate retry rule. Any other error is returned
// wrapped, and is fatal.
func classifyAllocateErr(err error, path string) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*rpc.ServerError); ok && isNotReplicatedYet(se.Error()) {
		return errs.ErrNotReplicatedYet
	}
	return errors.Wrapf(err, "addBlock %s", path)
}

func isNotReplicatedYet(msg string) bool {
	return msg == notReplicatedYetMsg
}

// notReplicatedYetMsg is the server-side error text a namenode sends back
// while the previous block hasn't finished replicating. It is matched by
// exact string since net/rpc erases the error's concrete type across the
// wire (rpc.ServerError only preserves Error()).
const notReplicatedYetMsg = "not replicated yet"
