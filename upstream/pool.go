package upstream

import (
	"sync"
	"time"
)

// PeerPool is an ordered list of Peers for one tier (primary or backup) plus
// aggregate metadata. It optionally links to a backup PeerPool via Next.
//
// A PeerPool exclusively owns its Peers. Its Next link is a non-owning
// handle to a sibling pool allocated at the same lifetime scope (built once
// by PoolBuilder, read-shared by all callers). Interior Peer fields are
// mutated under Lock/RLock below: a shared pool with a short critical
// section covering the whole choose sweep or the whole release update,
// never held across I/O.
type PeerPool struct {
	mu sync.RWMutex

	// Peers is the ordered sequence of peers; order is configuration order
	// and is the tie-break order for selection.
	Peers []*Peer
	// TotalWeight is the sum of Weight across Peers.
	TotalWeight int
	// Single is true iff len(Peers) == 1.
	Single bool
	// Weighted is false iff every peer shares weight 1. Not required for
	// correctness; enables a cheaper path in callers that want it.
	Weighted bool
	// Name is the pool's display name, e.g. the configured upstream name.
	Name string

	// Next is the backup tier, or nil. Never cyclic.
	Next *PeerPool
}

// Len returns the number of peers in the pool.
func (p *PeerPool) Len() int {
	return len(p.Peers)
}

// Lock acquires the pool's write lock for the duration of a choose sweep or
// a release update.
func (p *PeerPool) Lock() { p.mu.Lock() }

// Unlock releases the pool's write lock.
func (p *PeerPool) Unlock() { p.mu.Unlock() }

// RLock acquires the pool's read lock, for read-only introspection (admin
// snapshots, metrics export) that doesn't need the mutating critical
// section.
func (p *PeerPool) RLock() { p.mu.RLock() }

// RUnlock releases the pool's read lock.
func (p *PeerPool) RUnlock() { p.mu.RUnlock() }

// Snapshot returns a read-only copy of each peer's exported fields, safe to
// hold onto after the call returns. Used by admin introspection; never by
// the hot selection path.
func (p *PeerPool) Snapshot() []PeerSnapshot {
	p.RLock()
	defer p.RUnlock()

	out := make([]PeerSnapshot, len(p.Peers))
	for i, peer := range p.Peers {
		out[i] = PeerSnapshot{
			Name:            peer.Name,
			Weight:          peer.Weight,
			EffectiveWeight: peer.EffectiveWeight,
			CurrentWeight:   peer.CurrentWeight,
			MaxFails:        peer.MaxFails,
			FailTimeout:     peer.FailTimeout,
			Fails:           peer.Fails,
			Accessed:        peer.Accessed,
			Checked:         peer.Checked,
			Down:            peer.Down,
		}
	}
	return out
}

// PeerSnapshot is an immutable point-in-time view of a Peer's fields, safe
// for concurrent reads after it is returned from PeerPool.Snapshot.
type PeerSnapshot struct {
	Name            string
	Weight          int
	EffectiveWeight int
	CurrentWeight   int
	MaxFails        int
	FailTimeout     time.Duration
	Fails           int
	Accessed        time.Time
	Checked         time.Time
	Down            bool
}
