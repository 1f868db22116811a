// Package orchestrator implements FastCopy, spec.md §4.7: the top-level
// façade that owns the shared registries, the per-datanode connection
// cache, the lease keep-alive, and the bounded pool of concurrently
// running FileCopyJobs.
package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/WineChord/fastcopy/blockstatus"
	"github.com/WineChord/fastcopy/config"
	"github.com/WineChord/fastcopy/datanode"
	"github.com/WineChord/fastcopy/dnerrors"
	"github.com/WineChord/fastcopy/filecopy"
	"github.com/WineChord/fastcopy/filestatus"
	"github.com/WineChord/fastcopy/lease"
	"github.com/WineChord/fastcopy/namenode"
	"github.com/WineChord/fastcopy/utils"
)

// CopyRequest names one source/destination pair to copy, already resolved
// to concrete file paths (pathglob does the directory/glob expansion
// before requests reach here).
type CopyRequest struct {
	Src, Dst string
}

// CopyResult reports one request's outcome.
type CopyResult struct {
	Src, Dst string
	Blocks   int
	Bytes    int64
	Err      error
}

// NameNodeDialer resolves a namenode address to a live RPC handle.
// Production wires namenode.Dial; tests wire a fake factory.
type NameNodeDialer func(addr string) (namenode.RPC, error)

// Orchestrator is FastCopy's long-lived state: one per run (or one per
// process, if the caller issues several runs back to back).
type Orchestrator struct {
	dialNN     NameNodeDialer
	clientName string
	cfg        config.Config
	log        *logrus.Entry

	conns  *datanode.Cache
	errors *dnerrors.Registry
	blocks *blockstatus.Registry
	files  *filestatus.Registry
	sem    *semaphore.Weighted

	renewMu  sync.Mutex
	renewers map[string]*lease.Renewer

	nnMu    sync.Mutex
	nnConns map[string]namenode.RPC
}

// New builds an Orchestrator. dialDN wires the datanode connection cache;
// dialNN resolves namenode addresses on demand (one Proxy per distinct
// address, cached internally).
func New(dialNN NameNodeDialer, dialDN datanode.Dialer, cfg config.Config, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		dialNN:     dialNN,
		clientName: utils.NewClientName(),
		cfg:        cfg,
		log:        log,
		conns:      datanode.NewCache(dialDN),
		errors:     dnerrors.New(),
		blocks:     blockstatus.NewRegistry(),
		files:      filestatus.NewRegistry(),
		sem:        semaphore.NewWeighted(int64(cfg.FilePoolSize)),
		nnConns:    make(map[string]namenode.RPC),
		renewers:   make(map[string]*lease.Renewer),
	}
}

// namenodeProxy returns the cached RPC handle for addr, dialing it on
// first use. Source and destination URIs that name the same namenode
// addr share one Proxy, per spec.md §4.7's dedup requirement.
func (o *Orchestrator) namenodeProxy(addr string) (namenode.RPC, error) {
	o.nnMu.Lock()
	defer o.nnMu.Unlock()
	if nn, ok := o.nnConns[addr]; ok {
		return nn, nil
	}
	nn, err := o.dialNN(addr)
	if err != nil {
		return nil, err
	}
	o.nnConns[addr] = nn
	return nn, nil
}

// splitNamenodeAddr parses a "host:port/path" URI into its namenode
// address and the path local to that namenode.
func splitNamenodeAddr(uri string) (addr, path string, err error) {
	idx := strings.Index(uri, "/")
	if idx < 0 {
		return "", "", errors.Errorf("malformed path %q: expected host:port/path", uri)
	}
	addr, path = uri[:idx], uri[idx:]
	if addr == "" || path == "" {
		return "", "", errors.Errorf("malformed path %q: expected host:port/path", uri)
	}
	return addr, path, nil
}

// Copy runs every request, bounded to cfg.FilePoolSize concurrent
// FileCopyJobs, and returns one CopyResult per request in request order.
func (o *Orchestrator) Copy(ctx context.Context, reqs []CopyRequest) []CopyResult {
	results := make([]CopyResult, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		if err := o.sem.Acquire(ctx, 1); err != nil {
			results[i] = CopyResult{Src: req.Src, Dst: req.Dst, Err: err}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.sem.Release(1)
			results[i] = o.runOne(ctx, req)
		}()
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) runOne(ctx context.Context, req CopyRequest) CopyResult {
	log := o.log.WithFields(logrus.Fields{"src": req.Src, "dst": req.Dst})

	srcAddr, srcPath, err := splitNamenodeAddr(req.Src)
	if err != nil {
		return CopyResult{Src: req.Src, Dst: req.Dst, Err: err}
	}
	dstAddr, dstPath, err := splitNamenodeAddr(req.Dst)
	if err != nil {
		return CopyResult{Src: req.Src, Dst: req.Dst, Err: err}
	}

	srcNN, err := o.namenodeProxy(srcAddr)
	if err != nil {
		return CopyResult{Src: req.Src, Dst: req.Dst, Err: errors.Wrap(err, "dial source namenode")}
	}
	dstNN, err := o.namenodeProxy(dstAddr)
	if err != nil {
		return CopyResult{Src: req.Src, Dst: req.Dst, Err: errors.Wrap(err, "dial destination namenode")}
	}

	o.ensureRenewer(ctx, dstAddr, dstNN)

	job := filecopy.New(srcPath, dstPath, o.clientName, srcNN, dstNN,
		o.conns, o.errors, o.blocks, o.files, o.cfg, log)
	result, err := job.Run(ctx)
	return CopyResult{Src: req.Src, Dst: req.Dst, Blocks: result.Blocks, Bytes: result.Bytes, Err: err}
}

// ensureRenewer starts (once per distinct destination namenode address) a
// lease.Renewer keeping this run's client name alive there.
func (o *Orchestrator) ensureRenewer(ctx context.Context, addr string, nn namenode.RPC) {
	o.renewMu.Lock()
	defer o.renewMu.Unlock()
	if _, ok := o.renewers[addr]; ok {
		return
	}
	r := lease.New(nn, o.clientName, o.cfg.LeaseRenewInterval, o.log)
	r.Start(ctx)
	o.renewers[addr] = r
}

// Status returns (blocksDone, totalBlocks) for a destination path still
// tracked in the file-status registry.
func (o *Orchestrator) Status(dst string) (done, total int, ok bool) {
	s, ok := o.files.Get(dst)
	if !ok {
		return 0, 0, false
	}
	d, t := s.Snapshot()
	return d, t, true
}

// Shutdown stops every lease renewer and closes all RPC proxies, namenode
// and datanode alike, per spec.md §4.7. Call once, after Copy has
// returned; double-shutdown is tolerated.
func (o *Orchestrator) Shutdown() error {
	o.renewMu.Lock()
	for addr, r := range o.renewers {
		r.Stop()
		delete(o.renewers, addr)
	}
	o.renewMu.Unlock()

	var first error
	o.nnMu.Lock()
	for addr, nn := range o.nnConns {
		if err := nn.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close namenode %s", addr)
		}
		delete(o.nnConns, addr)
	}
	o.nnMu.Unlock()

	if err := o.conns.CloseAll(); err != nil && first == nil {
		first = err
	}
	return first
}
