// Package lease implements the background write-lease keep-alive from
// spec.md §4.6: for as long as a FastCopy run holds open destination
// files, something must call renewLease periodically or the owning
// namenode will reclaim the lease and the in-flight writes will fail.
package lease

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/WineChord/fastcopy/namenode"
)

// Renewer calls RenewLease on nn every interval until Stop is called.
// Renewal failures are logged and swallowed — a single missed renewal
// doesn't abort anything in flight; only a run of them will eventually
// surface as lease-related namenode errors on the jobs themselves.
type Renewer struct {
	nn         namenode.RPC
	clientName string
	interval   time.Duration
	log        *logrus.Entry

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// New returns a Renewer for clientName's lease on nn, not yet started.
func New(nn namenode.RPC, clientName string, interval time.Duration, log *logrus.Entry) *Renewer {
	return &Renewer{
		nn: nn, clientName: clientName, interval: interval,
		log:  log.WithField("client", clientName),
		done: make(chan struct{}),
	}
}

// Start launches the keep-alive goroutine. Safe to call once; later calls
// are no-ops.
func (r *Renewer) Start(ctx context.Context) {
	r.once.Do(func() {
		r.wg.Add(1)
		go r.run(ctx)
	})
}

func (r *Renewer) run(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.nn.RenewLease(ctx, r.clientName); err != nil {
				r.log.WithError(err).Warn("lease renewal failed")
			}
		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

// Stop ends the keep-alive goroutine and waits for it to exit.
func (r *Renewer) Stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	r.wg.Wait()
}
