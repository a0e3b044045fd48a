package inventory

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/agodin/mastermind/cmn/cos"
)

// Scheduler periodically calls Resolver.Refresh for a fixed host list, a
// single-callback trim of aistore's hk package (hk/housekeeper.go): one
// timer, one stop channel, no heap of competing callbacks, since the
// inventory sidecar only ever schedules its own refresh.
type Scheduler struct {
	resolver Resolver
	hosts    func() []string
	interval time.Duration

	stopCh *cos.StopCh
	done   chan struct{}
}

func NewScheduler(resolver Resolver, hosts func() []string, interval time.Duration) *Scheduler {
	return &Scheduler{
		resolver: resolver,
		hosts:    hosts,
		interval: interval,
		stopCh:   cos.NewStopCh(),
		done:     make(chan struct{}),
	}
}

// Run blocks, refreshing on every tick, until Stop is called. Callers run
// it in its own goroutine.
func (s *Scheduler) Run() {
	defer close(s.done)
	t := time.NewTimer(s.interval)
	defer t.Stop()
	for {
		select {
		case <-s.stopCh.Listen():
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if err := s.resolver.Refresh(ctx, s.hosts()); err != nil {
				glog.Warningf("inventory: scheduled refresh failed: %v", err)
			}
			cancel()
			t.Reset(s.interval)
		}
	}
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopCh.Close()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
