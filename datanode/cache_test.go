package datanode

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WineChord/fastcopy/namenode"
)

type fakeConn struct {
	closed bool
}

func (f *fakeConn) CopyBlock(context.Context, namenode.BlockId, namenode.NamespaceId,
	namenode.BlockId, namenode.NamespaceId, namenode.DatanodeRef, bool) error {
	return nil
}
func (f *fakeConn) Close() error { f.closed = true; return nil }

func TestCacheDialsOnceAndReusesConnection(t *testing.T) {
	var dials int
	dial := func(ref namenode.DatanodeRef) (RPC, error) {
		dials++
		return &fakeConn{}, nil
	}
	c := NewCache(dial)
	ref := namenode.DatanodeRef{Hostname: "dn1", Port: 9000}

	first, err := c.Get(ref)
	require.NoError(t, err)
	second, err := c.Get(ref)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, dials)
}

func TestCacheConcurrentGetDialsOnce(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	dial := func(ref namenode.DatanodeRef) (RPC, error) {
		mu.Lock()
		dials++
		mu.Unlock()
		return &fakeConn{}, nil
	}
	c := NewCache(dial)
	ref := namenode.DatanodeRef{Hostname: "dn1", Port: 9000}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(ref)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, c.Len())
}

func TestCloseAllClosesAndEmpties(t *testing.T) {
	conn := &fakeConn{}
	dial := func(ref namenode.DatanodeRef) (RPC, error) { return conn, nil }
	c := NewCache(dial)
	_, err := c.Get(namenode.DatanodeRef{Hostname: "dn1", Port: 9000})
	require.NoError(t, err)

	require.NoError(t, c.CloseAll())
	assert.True(t, conn.closed)
	assert.Equal(t, 0, c.Len())
}
