package blockcopy

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WineChord/fastcopy/blockstatus"
	"github.com/WineChord/fastcopy/datanode"
	"github.com/WineChord/fastcopy/datanode/datanodetest"
	"github.com/WineChord/fastcopy/dnerrors"
	"github.com/WineChord/fastcopy/filestatus"
	"github.com/WineChord/fastcopy/namenode"
)

func newHarness(t *testing.T) (*datanodetest.Fake, *datanode.Cache, *dnerrors.Registry, *blockstatus.Registry, *filestatus.Registry) {
	t.Helper()
	fake := datanodetest.New()
	conns := datanode.NewCache(fake.Dialer)
	return fake, conns, dnerrors.New(), blockstatus.NewRegistry(), filestatus.NewRegistry()
}

func TestTaskSuccessRecordsGoodAndCompletesBlock(t *testing.T) {
	fake, conns, errReg, blocks, files := newHarness(t)
	blocks.Register("blk-1", 1, 1)
	fs := files.GetOrCreate("/dst/f", 1)

	task := &Task{
		SrcBlock: namenode.BlockId{ID: "blk-1"}, SrcNode: namenode.DatanodeRef{Hostname: "a", Port: 1},
		DstBlock: namenode.BlockId{ID: "blk-1"}, DstNode: namenode.DatanodeRef{Hostname: "b", Port: 1},
		BlockKey: "blk-1", DestPath: "/dst/f",
		Conns: conns, Errors: errReg, Blocks: blocks, Files: files,
		MaxDatanodeErrors: 5, Log: logrus.NewEntry(logrus.New()),
	}
	require.NoError(t, task.Run(context.Background()))

	assert.Len(t, fake.Calls(), 1)
	done, _ := fs.Snapshot()
	assert.Equal(t, 1, done)
}

func TestTaskRemoteFailureAttributedToDestination(t *testing.T) {
	fake, conns, errReg, blocks, files := newHarness(t)
	fake.Fail = func(datanodetest.Call) (bool, error) { return true, assert.AnError }
	blocks.Register("blk-1", 1, 1)
	files.GetOrCreate("/dst/f", 1)

	task := &Task{
		SrcBlock: namenode.BlockId{ID: "blk-1"}, SrcNode: namenode.DatanodeRef{Hostname: "a", Port: 1},
		DstBlock: namenode.BlockId{ID: "blk-1"}, DstNode: namenode.DatanodeRef{Hostname: "b", Port: 1},
		BlockKey: "blk-1", DestPath: "/dst/f",
		Conns: conns, Errors: errReg, Blocks: blocks, Files: files,
		MaxDatanodeErrors: 5, Log: logrus.NewEntry(logrus.New()),
	}
	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, 1, errReg.Get("b:1"))
	assert.Equal(t, 0, errReg.Get("a:1"))
	fs, _ := files.Get("/dst/f")
	assert.Error(t, fs.Err())
}

func TestTaskLocalFailureAttributedToSource(t *testing.T) {
	fake, conns, errReg, blocks, files := newHarness(t)
	fake.Fail = func(datanodetest.Call) (bool, error) { return false, assert.AnError }
	blocks.Register("blk-1", 1, 1)
	files.GetOrCreate("/dst/f", 1)

	task := &Task{
		SrcBlock: namenode.BlockId{ID: "blk-1"}, SrcNode: namenode.DatanodeRef{Hostname: "a", Port: 1},
		DstBlock: namenode.BlockId{ID: "blk-1"}, DstNode: namenode.DatanodeRef{Hostname: "b", Port: 1},
		BlockKey: "blk-1", DestPath: "/dst/f",
		Conns: conns, Errors: errReg, Blocks: blocks, Files: files,
		MaxDatanodeErrors: 5, Log: logrus.NewEntry(logrus.New()),
	}
	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, 1, errReg.Get("a:1"))
	assert.Equal(t, 0, errReg.Get("b:1"))
}

func TestTaskSkipsQuarantinedDatanode(t *testing.T) {
	fake, conns, errReg, blocks, files := newHarness(t)
	for i := 0; i < 6; i++ {
		errReg.Increment("a:1")
	}
	blocks.Register("blk-1", 1, 1)
	files.GetOrCreate("/dst/f", 1)

	task := &Task{
		SrcBlock: namenode.BlockId{ID: "blk-1"}, SrcNode: namenode.DatanodeRef{Hostname: "a", Port: 1},
		DstBlock: namenode.BlockId{ID: "blk-1"}, DstNode: namenode.DatanodeRef{Hostname: "b", Port: 1},
		BlockKey: "blk-1", DestPath: "/dst/f",
		Conns: conns, Errors: errReg, Blocks: blocks, Files: files,
		MaxDatanodeErrors: 5, Log: logrus.NewEntry(logrus.New()),
	}
	require.NoError(t, task.Run(context.Background()))

	assert.Empty(t, fake.Calls(), "a quarantined task must not issue its RPC")
	fs, _ := files.Get("/dst/f")
	assert.Error(t, fs.Err(), "the skip counts as a bad replica outcome")
}
