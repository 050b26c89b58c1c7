package upstream

import (
	"github.com/coolproxy/coolproxy/shared/roughtime"
	"github.com/sirupsen/logrus"
	mutexasserts "github.com/trailofbits/go-mutexasserts"
)

var log = logrus.WithField("prefix", "upstream")

// assertLocks gates debug-build lock assertions that catch programmer
// misuse (calling sweep without the pool lock held; Release takes the lock
// itself, so its check always passes). Flip to false to drop the (small)
// reflection overhead in a release build.
var assertLocks = true

// Selector is the algorithm surface: InitAttempt, Choose, Release. It
// implements smooth weighted round-robin, failure accounting, and tier
// failover.
//
// Selector itself is stateless; all mutable state lives in the PeerPool(s)
// it is given and in the caller-owned AttemptState. A single Selector value
// may be shared across every pool and every goroutine.
type Selector struct{}

// NewSelector returns a ready-to-use Selector.
func NewSelector() *Selector {
	return &Selector{}
}

// InitAttempt starts a new per-request selection against pool: it sizes the
// tried bitset to the larger of pool and pool.Next (so a tier switch never
// needs to grow it), and seeds TriesRemaining to pool's peer count.
func (s *Selector) InitAttempt(pool *PeerPool) *AttemptState {
	n := pool.Len()
	if pool.Next != nil && pool.Next.Len() > n {
		n = pool.Next.Len()
	}
	return &AttemptState{
		pool:           pool,
		tried:          newTriedBitset(n),
		TriesRemaining: pool.Len(),
	}
}

// Choose returns the next peer to dial for state, or an error satisfying
// IsBusy if every peer in every reachable tier is currently ineligible.
func (s *Selector) Choose(state *AttemptState) (*Peer, error) {
	for {
		pool := state.pool
		pool.Lock()

		peer, idx, ok := s.sweep(state, pool)
		if ok {
			state.current = idx
			state.tried.set(idx)
			selectionsTotal.WithLabelValues(pool.Name, peer.Name).Inc()
			effectiveWeight.WithLabelValues(pool.Name, peer.Name).Set(float64(peer.EffectiveWeight))

			// A successful choose from the primary pool while a backup
			// exists bumps the caller's remaining tries so it can reach
			// the backup tier.
			if state.TriesRemaining == 1 && pool.Next != nil {
				state.TriesRemaining += pool.Next.Len()
			}
			pool.Unlock()
			return peer, nil
		}

		if pool.Next != nil {
			pool.Unlock() // lock ordering: release primary before touching backup
			log.WithField("pool", pool.Name).Debug("backup servers")
			failoverTotal.WithLabelValues(pool.Name).Inc()

			state.pool = pool.Next
			state.tried.reset(pool.Next.Len())
			state.TriesRemaining = pool.Next.Len()
			continue
		}

		// Quick recovery: all peers failed, mark them live so the next
		// request isn't doomed by a transient global outage.
		for _, p := range pool.Peers {
			p.resetFailures()
		}
		pool.Unlock()
		busyTotal.WithLabelValues(pool.Name).Inc()
		return nil, &busyError{pool: pool.Name}
	}
}

// sweep runs one smooth-weighted-round-robin pass over pool, or the
// single-peer fast path. Caller must hold pool's write lock.
func (s *Selector) sweep(state *AttemptState, pool *PeerPool) (best *Peer, bestIdx int, ok bool) {
	if assertLocks && !mutexasserts.RWMutexLocked(&pool.mu) {
		panic("upstream: sweep called without pool lock held")
	}

	now := roughtime.Now()

	if pool.Single {
		peer := pool.Peers[0]
		if peer.Down {
			return nil, 0, false
		}
		if peer.MaxFails > 0 && peer.Fails >= peer.MaxFails && now.Sub(peer.Checked) <= peer.FailTimeout {
			return nil, 0, false
		}
		return peer, 0, true
	}

	bestIdx = -1
	total := 0

	for i, peer := range pool.Peers {
		if state.tried.isSet(i) {
			continue
		}
		if peer.Down {
			continue
		}
		if peer.MaxFails > 0 && peer.Fails >= peer.MaxFails && now.Sub(peer.Checked) <= peer.FailTimeout {
			continue
		}

		peer.CurrentWeight += peer.EffectiveWeight
		total += peer.EffectiveWeight

		// The recovery increment happens inside the same sweep that may
		// pick a different peer as best, before the comparison below. This
		// mirrors nginx's ngx_http_upstream_get_peer exactly: the asymmetry
		// is preserved rather than "fixed".
		if peer.EffectiveWeight < peer.Weight {
			peer.EffectiveWeight++
		}

		if best == nil || peer.CurrentWeight > best.CurrentWeight {
			best = peer
			bestIdx = i
		}
	}

	if best == nil {
		return nil, 0, false
	}

	best.CurrentWeight -= total
	if now.Sub(best.Checked) > best.FailTimeout {
		best.Checked = now
	}

	return best, bestIdx, true
}

// Release reports the outcome of the dial to the peer returned by the last
// Choose call on state, updating its failure/recovery bookkeeping.
func (s *Selector) Release(state *AttemptState, outcome Outcome) {
	pool := state.pool
	pool.Lock()
	defer pool.Unlock()

	if assertLocks && !mutexasserts.RWMutexLocked(&pool.mu) {
		panic("upstream: release called without pool lock held")
	}

	if pool.Single {
		// Preserved as written: a one-peer pool never retries, even on
		// failure.
		state.TriesRemaining = 0
		return
	}

	peer := pool.Peers[state.current]
	now := roughtime.Now()

	if outcome == Failed {
		peer.Fails++
		peer.Accessed = now
		peer.Checked = now
		if peer.MaxFails > 0 {
			peer.EffectiveWeight -= peer.Weight / peer.MaxFails
		}
		if peer.EffectiveWeight < 0 {
			peer.EffectiveWeight = 0
		}
	} else if peer.Accessed.Before(peer.Checked) {
		// A success that post-dates the window boundary clears the fault
		// count; a success during an expired window doesn't overwrite
		// Accessed, so this only fires once per opened window.
		peer.Fails = 0
	}
	releaseOutcomeTotal.WithLabelValues(pool.Name, peer.Name, outcome.String()).Inc()

	if state.TriesRemaining > 0 {
		state.TriesRemaining--
	}
}
