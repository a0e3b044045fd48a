// Package cos provides small concurrency and error helpers shared across
// the collector packages, in the spirit of aistore's cmn/cos.
package cos

import "sync"

// StopCh is a close-once stop signal, safe to Close from multiple goroutines.
type StopCh struct {
	once sync.Once
	ch   chan struct{}
}

func NewStopCh() *StopCh {
	return &StopCh{ch: make(chan struct{})}
}

func (sc *StopCh) Listen() <-chan struct{} { return sc.ch }

func (sc *StopCh) Close() {
	sc.once.Do(func() { close(sc.ch) })
}

// Semaphore is a counting semaphore backed by a buffered channel.
type Semaphore struct {
	s chan struct{}
}

func NewSemaphore(n int) *Semaphore {
	sem := &Semaphore{s: make(chan struct{}, n)}
	for i := 0; i < n; i++ {
		sem.s <- struct{}{}
	}
	return sem
}

func (s *Semaphore) Acquire() { <-s.s }
func (s *Semaphore) Release() { s.s <- struct{}{} }
