// Package filecopy implements FileCopyJob, spec.md §4.5: the per-file
// pipeline of source-metadata fetch, allocate-block-then-fan-out loop, and
// commit.
package filecopy

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/WineChord/fastcopy/blockcopy"
	"github.com/WineChord/fastcopy/blockstatus"
	"github.com/WineChord/fastcopy/config"
	"github.com/WineChord/fastcopy/datanode"
	"github.com/WineChord/fastcopy/dnerrors"
	"github.com/WineChord/fastcopy/errs"
	"github.com/WineChord/fastcopy/filestatus"
	"github.com/WineChord/fastcopy/namenode"
)

// Job copies one file: source metadata in, destination file fully
// replicated and committed out.
type Job struct {
	Src, Dst   string
	ClientName string

	SrcNN, DstNN namenode.RPC
	Conns        *datanode.Cache
	Errors       *dnerrors.Registry
	Blocks       *blockstatus.Registry
	Files        *filestatus.Registry
	Cfg          config.Config

	Log *logrus.Entry
}

// New returns a Job stamped with a fresh correlation id for logging.
func New(src, dst, clientName string, srcNN, dstNN namenode.RPC, conns *datanode.Cache,
	errReg *dnerrors.Registry, blocks *blockstatus.Registry, files *filestatus.Registry,
	cfg config.Config, log *logrus.Entry) *Job {
	return &Job{
		Src: src, Dst: dst, ClientName: clientName,
		SrcNN: srcNN, DstNN: dstNN, Conns: conns,
		Errors: errReg, Blocks: blocks, Files: files, Cfg: cfg,
		Log: log.WithFields(logrus.Fields{
			"job": uuid.New().String(), "src": src, "dst": dst,
		}),
	}
}

// Result summarizes a finished (or partially finished, on error) copy.
type Result struct {
	Blocks int
	Bytes  int64
}

// Run executes the job end to end. On any error after the destination has
// been created, the destination is deleted (best effort) before the error
// is returned, per spec.md §4.5's failure-handling rule. Errors up to and
// including the create call (source lookup, federation mismatch, create
// itself) are returned without a delete.
func (j *Job) Run(ctx context.Context) (Result, error) {
	attrs, srcBlocks, srcFederated, err := j.fetchSource(ctx)
	if err != nil {
		return Result{}, err
	}

	if srcFederated != j.DstNN.Capabilities().Federated {
		j.Log.Warn("source/destination federation mismatch, refusing copy")
		return Result{}, errs.ErrCrossFederation
	}

	if err := j.DstNN.Create(ctx, j.Dst, *attrs, j.ClientName); err != nil {
		return Result{}, errors.Wrap(err, "create destination")
	}

	result, err := j.copyBlocks(ctx, srcBlocks)
	if err != nil {
		j.cleanup()
		return result, err
	}

	if err := j.commit(ctx); err != nil {
		j.cleanup()
		return result, err
	}
	j.Log.WithField("blocks", result.Blocks).Info("file copy committed")
	return result, nil
}

func (j *Job) fetchSource(ctx context.Context) (*namenode.FileAttrs, []namenode.LocatedBlock, bool, error) {
	attrs, err := j.SrcNN.GetFileInfo(ctx, j.Src)
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "get source file info")
	}
	if attrs == nil {
		return nil, nil, false, errs.ErrSourceNotFound
	}

	if j.SrcNN.Capabilities().Federated {
		blocks, _, err := j.SrcNN.OpenAndFetchMetaInfo(ctx, j.Src, 0, attrs.Length)
		if err != nil {
			return nil, nil, false, errors.Wrap(err, "open source metadata")
		}
		return attrs, blocks, true, nil
	}
	blocks, err := j.SrcNN.GetBlockLocations(ctx, j.Src, 0, attrs.Length)
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "get source block locations")
	}
	return attrs, blocks, false, nil
}

// copyBlocks runs the allocate-then-fan-out loop of spec.md §4.5 step 3.
func (j *Job) copyBlocks(ctx context.Context, srcBlocks []namenode.LocatedBlock) (Result, error) {
	fs := j.Files.GetOrCreate(j.Dst, len(srcBlocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.Cfg.BlockPoolSize)

	dstFederated := j.DstNN.Capabilities().Federated
	dstStartPos := j.DstNN.Capabilities().StartPos

	var offset, totalBytes int64
	var blocksAdded int

	for _, sb := range srcBlocks {
		db, err := j.allocateBlock(ctx, offset, sb.Locs, dstFederated, dstStartPos)
		if err != nil {
			return Result{Blocks: blocksAdded, Bytes: totalBytes}, err
		}

		pairs := matchLocations(sb.Locs, db.Locs)
		key := db.Block.ID
		j.Blocks.Register(key, len(pairs), j.Cfg.MinReplication)

		for _, pr := range pairs {
			pr := pr
			sb := sb
			db := db
			g.Go(func() error {
				t := &blockcopy.Task{
					SrcBlock: sb.Block, SrcNS: sb.Namespace, SrcNode: pr.src,
					DstBlock: db.Block, DstNS: db.Namespace, DstNode: pr.dst,
					Federated: dstFederated,
					BlockKey:  key, DestPath: j.Dst,
					Conns: j.Conns, Errors: j.Errors, Blocks: j.Blocks, Files: j.Files,
					MaxDatanodeErrors: j.Cfg.MaxDatanodeErrors,
					Log:               j.Log,
				}
				return t.Run(gctx)
			})
		}

		blocksAdded++
		totalBytes += sb.Length
		offset += sb.Length

		// Backpressure: don't allocate block i+1 until block i (and every
		// earlier one) has reached a verdict. blocksAdded==0 never gates
		// since there's nothing to wait for before the first block.
		if blocksAdded > 0 {
			if err := fs.WaitUntilDone(ctx, blocksAdded); err != nil {
				return Result{Blocks: blocksAdded, Bytes: totalBytes}, err
			}
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, j.Cfg.FileWaitTime)
	defer cancel()
	waitDone := make(chan error, 1)
	go func() { waitDone <- g.Wait() }()
	select {
	case err := <-waitDone:
		if err != nil {
			return Result{Blocks: blocksAdded, Bytes: totalBytes}, err
		}
	case <-drainCtx.Done():
		return Result{Blocks: blocksAdded, Bytes: totalBytes}, errs.ErrDrainTimeout
	}
	return Result{Blocks: blocksAdded, Bytes: totalBytes}, nil
}

// allocateBlock asks the destination namenode for a new block appended to
// the destination, with the source block's own replica nodes as favored
// nodes — the mechanism that drives local placement (spec.md §4.5 step
// 3a). It retries the namenode's "not replicated yet" rejection up to
// AllocateRetries times.
func (j *Job) allocateBlock(ctx context.Context, offset int64, favored []namenode.DatanodeRef, federated, startPos bool) (*namenode.LocatedBlock, error) {
	for attempt := 0; ; attempt++ {
		var (
			block *namenode.LocatedBlock
			err   error
		)
		if federated {
			sp := int64(-1)
			if startPos {
				sp = offset
			}
			var ns namenode.NamespaceId
			block, ns, err = j.DstNN.AddBlockAndFetchMetaInfo(ctx, j.Dst, j.ClientName, nil, favored, sp)
			if err == nil {
				block.Namespace = ns
			}
		} else {
			block, err = j.DstNN.AddBlock(ctx, j.Dst, j.ClientName, nil, favored)
		}
		if err == nil {
			return block, nil
		}
		if errors.Is(err, errs.ErrNotReplicatedYet) && attempt < j.Cfg.AllocateRetries {
			j.Log.WithField("attempt", attempt+1).Debug("block not replicated yet, retrying")
			select {
			case <-time.After(j.Cfg.AllocateBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		return nil, errors.Wrap(err, "allocate block")
	}
}

// commit polls the destination namenode's complete() until it reports the
// file durable, retrying on "not yet" up to FileWaitTime (spec.md §4.5
// step 5).
func (j *Job) commit(ctx context.Context) error {
	deadline := time.Now().Add(j.Cfg.FileWaitTime)
	for {
		done, err := j.DstNN.Complete(ctx, j.Dst, j.ClientName)
		if err != nil {
			return errors.Wrap(err, "complete")
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return errs.ErrCommitTimeout
		}
		select {
		case <-time.After(j.Cfg.CommitPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *Job) cleanup() {
	cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := j.DstNN.Delete(cctx, j.Dst, false); err != nil {
		j.Log.WithError(err).Warn("failed to clean up partially-created destination")
	}
	j.Files.Delete(j.Dst)
}

type locPair struct{ src, dst namenode.DatanodeRef }

// matchLocations sorts both replica lists deterministically (by identity)
// and pairs them positionally, per spec.md §4.5 step 3c. The number of
// pairs is min(len(src), len(dst)).
func matchLocations(src, dst []namenode.DatanodeRef) []locPair {
	srcSorted := append([]namenode.DatanodeRef(nil), src...)
	dstSorted := append([]namenode.DatanodeRef(nil), dst...)
	sort.Slice(srcSorted, func(i, k int) bool { return srcSorted[i].Identity() < srcSorted[k].Identity() })
	sort.Slice(dstSorted, func(i, k int) bool { return dstSorted[i].Identity() < dstSorted[k].Identity() })

	n := len(srcSorted)
	if len(dstSorted) < n {
		n = len(dstSorted)
	}
	pairs := make([]locPair, n)
	for i := 0; i < n; i++ {
		pairs[i] = locPair{src: srcSorted[i], dst: dstSorted[i]}
	}
	return pairs
}
