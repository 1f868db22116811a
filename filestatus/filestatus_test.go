package filestatus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitUntilDoneUnblocksOnBlockDone(t *testing.T) {
	s := New("/dst/f", 2)
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.BlockDone()
	}()
	err := s.WaitUntilDone(context.Background(), 1)
	require.NoError(t, err)
	done, total := s.Snapshot()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)
}

func TestWaitUntilDoneReturnsStickyError(t *testing.T) {
	s := New("/dst/f", 2)
	boom := assert.AnError
	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Fail(boom)
	}()
	err := s.WaitUntilDone(context.Background(), 1)
	require.Error(t, err)
}

func TestWaitUntilDoneRespectsContextCancellation(t *testing.T) {
	s := New("/dst/f", 2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := s.WaitUntilDone(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitUntilDoneReturnsImmediatelyWhenAlreadySatisfied(t *testing.T) {
	s := New("/dst/f", 1)
	s.BlockDone()
	err := s.WaitUntilDone(context.Background(), 1)
	require.NoError(t, err)
}

func TestRegistryGetOrCreateReusesExistingEntry(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("/dst/f", 5)
	b := r.GetOrCreate("/dst/f", 99)
	assert.Same(t, a, b)
	assert.Equal(t, 5, a.TotalBlocks)
}

func TestRegistryDeleteRemovesEntry(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("/dst/f", 5)
	r.Delete("/dst/f")
	_, ok := r.Get("/dst/f")
	assert.False(t, ok)
}
