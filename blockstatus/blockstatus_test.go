package blockstatus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFiresGoodOnceMinReplicationReached(t *testing.T) {
	r := NewRegistry()
	r.Register("b1", 3, 1)

	verdict, fired := r.Record("b1", true)
	require.True(t, fired)
	assert.Equal(t, Good, verdict)

	// The entry is gone: further calls are silent non-events.
	verdict, fired = r.Record("b1", true)
	assert.False(t, fired)
	assert.Equal(t, Pending, verdict)
	assert.Equal(t, 0, r.Len())
}

func TestRecordFiresBadOnlyWhenAllReplicasFail(t *testing.T) {
	r := NewRegistry()
	r.Register("b1", 3, 1)

	_, fired := r.Record("b1", false)
	assert.False(t, fired)
	_, fired = r.Record("b1", false)
	assert.False(t, fired)
	verdict, fired := r.Record("b1", false)
	require.True(t, fired)
	assert.Equal(t, Bad, verdict)
}

func TestRecordUnknownKeyIsNonEvent(t *testing.T) {
	r := NewRegistry()
	verdict, fired := r.Record("missing", true)
	assert.False(t, fired)
	assert.Equal(t, Pending, verdict)
}

func TestRecordFiresExactlyOnceUnderConcurrency(t *testing.T) {
	r := NewRegistry()
	r.Register("b1", 100, 50)

	var wg sync.WaitGroup
	fires := make(chan Verdict, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if v, fired := r.Record("b1", true); fired {
				fires <- v
			}
		}(i)
	}
	wg.Wait()
	close(fires)

	count := 0
	for range fires {
		count++
	}
	assert.Equal(t, 1, count, "verdict must fire exactly once across concurrent recorders")
	assert.Equal(t, 0, r.Len())
}

func TestSnapshotReflectsPendingState(t *testing.T) {
	r := NewRegistry()
	r.Register("b1", 3, 2)
	r.Record("b1", true)

	good, bad, total, ok := r.Snapshot("b1")
	require.True(t, ok)
	assert.Equal(t, 1, good)
	assert.Equal(t, 0, bad)
	assert.Equal(t, 3, total)
}
