package lease

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/WineChord/fastcopy/namenode"
	"github.com/WineChord/fastcopy/namenode/namenodetest"
)

func TestRenewerCallsRenewLeaseOnEveryTick(t *testing.T) {
	nn := namenodetest.New(namenode.Capabilities{})
	r := New(nn, "FastCopyTest", 5*time.Millisecond, logrus.NewEntry(logrus.New()))

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	r.Stop()

	assert.GreaterOrEqual(t, nn.RenewCalls(), int32(2))
}

func TestRenewerStopIsIdempotentAndWaitsForExit(t *testing.T) {
	nn := namenodetest.New(namenode.Capabilities{})
	r := New(nn, "FastCopyTest", time.Millisecond, logrus.NewEntry(logrus.New()))
	r.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	r.Stop()
	callsAtStop := nn.RenewCalls()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, callsAtStop, nn.RenewCalls(), "no further renewals after Stop")

	r.Stop() // must not panic or block
}
