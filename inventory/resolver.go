package inventory

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/agodin/mastermind/cmn/cos"
)

// Lookup performs the actual host->datacenter call. It stands in for the
// external worker that does the real inventory-system round trip.
type Lookup func(ctx context.Context, host string) (string, error)

// Resolver is the host->datacenter lookup contract.
type Resolver interface {
	Resolve(ctx context.Context, host string) (string, error)
	Refresh(ctx context.Context, hosts []string) error
	Stop(ctx context.Context) error
}

// CachingResolver is the reference Resolver: a persistent Store fronted
// by a singleflight-collapsed lookup, with cache-map mutations funneled
// through one serial dispatch queue so concurrent Resolve/Refresh calls
// never race on Store — modeled on hk.hk.workCh's single-writer queue
// (hk/housekeeper.go), trimmed to this package's one job.
type CachingResolver struct {
	store      Store
	lookup     Lookup
	staleAfter time.Duration
	maxWorkers int

	sf singleflight.Group

	dispatch chan func()
	stopCh   *cos.StopCh
	done     chan struct{}
}

func NewCachingResolver(store Store, lookup Lookup, staleAfter time.Duration, maxWorkers int) *CachingResolver {
	r := &CachingResolver{
		store:      store,
		lookup:     lookup,
		staleAfter: staleAfter,
		maxWorkers: maxWorkers,
		dispatch:   make(chan func(), 64),
		stopCh:     cos.NewStopCh(),
		done:       make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *CachingResolver) run() {
	defer close(r.done)
	for {
		select {
		case <-r.stopCh.Listen():
			for {
				select {
				case f := <-r.dispatch:
					f()
				default:
					return
				}
			}
		case f := <-r.dispatch:
			f()
		}
	}
}

// Resolve returns the cached datacenter if the entry is fresher than
// staleAfter; otherwise it looks up host, collapsing concurrent callers
// resolving the same host into a single in-flight lookup.
func (r *CachingResolver) Resolve(ctx context.Context, host string) (string, error) {
	if e, err := r.store.Get(host); err == nil {
		if time.Since(time.Unix(e.Timestamp, 0)) < r.staleAfter {
			return e.DC, nil
		}
	}
	v, err, _ := r.sf.Do(host, func() (any, error) {
		dc, err := r.lookup(ctx, host)
		if err != nil {
			return "", err
		}
		r.save(host, dc)
		return dc, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *CachingResolver) save(host, dc string) {
	done := make(chan struct{})
	r.dispatch <- func() {
		defer close(done)
		_ = r.store.Set(host, Entry{Host: host, DC: dc, Timestamp: time.Now().Unix()})
	}
	<-done
}

// Refresh forces a fresh lookup for every host, bounded to maxWorkers
// concurrent in-flight lookups via golang.org/x/sync/errgroup — grounded
// in aistore's own errgroup fan-out for per-mountpath work
// (xs/bsummary.go, reb/globrun.go).
func (r *CachingResolver) Refresh(ctx context.Context, hosts []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxWorkers)
	for _, host := range hosts {
		host := host
		g.Go(func() error {
			dc, err := r.lookup(gctx, host)
			if err != nil {
				return err
			}
			r.save(host, dc)
			return nil
		})
	}
	return g.Wait()
}

// Stop closes the dispatch loop and waits for it to run the mutations
// already queued and exit, or for ctx to expire first. Lookups still in
// flight in Resolve or Refresh are not waited for.
func (r *CachingResolver) Stop(ctx context.Context) error {
	r.stopCh.Close()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
