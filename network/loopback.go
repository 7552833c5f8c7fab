package network

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/automoto/transformsync/shared/messages"
	"k8s.io/utils/clock"
)

// BootstrapHandler answers a bootstrap request on the authority side.
type BootstrapHandler func(req messages.BootstrapRequest) []messages.BootstrapResponse

// LoopbackStats counts what happened on a loopback channel.
type LoopbackStats struct {
	Sent      int
	Dropped   int
	Delivered int
}

// Loopback is an in-process channel between one authority and one observer.
// Every message is delayed by a fixed latency; snapshots are additionally
// dropped at random with probability dropRate. Delivery order always matches
// send order, as on the unreliable-ordered path.
//
// The authority side uses it as a Broadcaster; the observer side uses it as a
// Requester and drains it the way it drains a network client.
type Loopback struct {
	mu       sync.Mutex
	clock    clock.PassiveClock
	latency  time.Duration
	dropRate float64
	rng      *rand.Rand
	handler  BootstrapHandler

	pending    []envelope
	snapshots  []messages.TransformSnapshot
	bootstraps []messages.BootstrapResponse
	stats      LoopbackStats
}

type envelope struct {
	due time.Time
	msg any
}

// NewLoopback creates a loopback channel. seed fixes the drop pattern.
func NewLoopback(clk clock.PassiveClock, latency time.Duration, dropRate float64, seed uint64) *Loopback {
	return &Loopback{
		clock:    clk,
		latency:  latency,
		dropRate: dropRate,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Serve installs the authority's bootstrap handler. The handler runs during
// a drain and must not call back into the loopback.
func (l *Loopback) Serve(h BootstrapHandler) {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

// SetDropRate changes the snapshot loss probability for later broadcasts.
func (l *Loopback) SetDropRate(rate float64) {
	l.mu.Lock()
	l.dropRate = rate
	l.mu.Unlock()
}

// Broadcast implements Broadcaster.
func (l *Loopback) Broadcast(msg messages.TransformSnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.Sent++
	if l.dropRate > 0 && l.rng.Float64() < l.dropRate {
		l.stats.Dropped++
		return nil
	}
	l.enqueue(msg)
	return nil
}

// RequestBootstrap implements Requester. The reliable path never drops.
func (l *Loopback) RequestBootstrap(req messages.BootstrapRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enqueue(req)
	return nil
}

// DrainSnapshots returns every snapshot whose latency has elapsed.
func (l *Loopback) DrainSnapshots() []messages.TransformSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pump()
	out := l.snapshots
	l.snapshots = nil
	return out
}

// DrainBootstraps returns every bootstrap response whose latency has elapsed.
func (l *Loopback) DrainBootstraps() []messages.BootstrapResponse {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pump()
	out := l.bootstraps
	l.bootstraps = nil
	return out
}

// Stats returns a copy of the channel counters.
func (l *Loopback) Stats() LoopbackStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Loopback) enqueue(msg any) {
	l.pending = append(l.pending, envelope{due: l.clock.Now().Add(l.latency), msg: msg})
}

// pump moves due envelopes to their destination. Due times are non-decreasing
// because latency is fixed, so the queue is processed strictly from the front.
func (l *Loopback) pump() {
	now := l.clock.Now()
	i := 0
	for ; i < len(l.pending) && !l.pending[i].due.After(now); i++ {
		switch msg := l.pending[i].msg.(type) {
		case messages.TransformSnapshot:
			l.snapshots = append(l.snapshots, msg)
			l.stats.Delivered++
		case messages.BootstrapResponse:
			l.bootstraps = append(l.bootstraps, msg)
		case messages.BootstrapRequest:
			if l.handler == nil {
				continue
			}
			for _, resp := range l.handler(msg) {
				l.enqueue(resp)
			}
		}
	}
	l.pending = append(l.pending[:0], l.pending[i:]...)
}
