package upstream

import (
	"net"
	"time"
)

// PeerState is the derived eligibility state of a Peer. It is never stored
// directly; it is computed from Peer's runtime fields at the time a caller
// asks for it.
type PeerState int

const (
	// PeerEligible means the peer is not down and not serving a penalty
	// window; it is a candidate in the next choose sweep.
	PeerEligible PeerState = iota
	// PeerPenalised means the peer hit max_fails within fail_timeout and is
	// being skipped until the window elapses.
	PeerPenalised
	// PeerDown means the peer was administratively disabled at build time.
	// Terminal unless the pool is rebuilt from configuration.
	PeerDown
)

func (s PeerState) String() string {
	switch s {
	case PeerEligible:
		return "eligible"
	case PeerPenalised:
		return "penalised"
	case PeerDown:
		return "down"
	default:
		return "unknown"
	}
}

// Peer is a single upstream endpoint: identity, static configuration, and
// mutable runtime counters consulted and updated by Selector.
//
// Peer is designed to live inside a PeerPool and be mutated only while the
// owning pool's lock is held (see Selector's concurrency discipline).
type Peer struct {
	// Addr is the resolved network address of this endpoint.
	Addr net.Addr
	// Name is a human-readable label, used in logs and admin output. It
	// defaults to Addr.String() but may be overridden (e.g. a DNS name).
	Name string

	// Weight is the configured static weight. Always >= 1.
	Weight int
	// MaxFails is the failure threshold within FailTimeout. Zero means the
	// peer is never ejected for failures.
	MaxFails int
	// FailTimeout is the window over which Fails is counted.
	FailTimeout time.Duration
	// Down administratively disables the peer. Immutable after build.
	Down bool

	// EffectiveWeight is the current contribution to the smoothing
	// algorithm. Starts at Weight, decreases on failure, recovers by at
	// most 1 per choose sweep. Invariant: 0 <= EffectiveWeight <= Weight.
	EffectiveWeight int
	// CurrentWeight is the running smoothing accumulator. Signed; starts at
	// 0 and is bounded by +/-(peer count * max weight) in normal operation.
	CurrentWeight int

	// Fails is the number of failures observed within the current window.
	Fails int
	// Accessed is the wall-clock time of the last recorded failure.
	Accessed time.Time
	// Checked is the wall-clock time the current fail window began.
	Checked time.Time

	// sslSession is the opaque cached TLS session handle used to resume a
	// connection to this peer. Typed interface{} so this package doesn't
	// need to import crypto/tls; proxy.Connector populates it with a
	// *tls.ClientSessionState.
	sslSession interface{}
}

// State returns the peer's current derived eligibility.
func (p *Peer) State(now time.Time) PeerState {
	if p.Down {
		return PeerDown
	}
	if p.MaxFails > 0 && p.Fails >= p.MaxFails && now.Sub(p.Checked) <= p.FailTimeout {
		return PeerPenalised
	}
	return PeerEligible
}

// Session returns the cached TLS session handle, if any. Caller must hold
// the pool lock (matches nginx's commented-out per-peer mutex acquisition
// around set/save session).
func (p *Peer) Session() interface{} {
	return p.sslSession
}

// SetSession stores a new TLS session handle, returning the previous one so
// the caller can release it. Caller must hold the pool lock.
func (p *Peer) SetSession(session interface{}) interface{} {
	old := p.sslSession
	p.sslSession = session
	return old
}

// resetFailures clears the failure counter without touching any other
// field. Used by the quick-recovery path when an entire pool is exhausted.
func (p *Peer) resetFailures() {
	p.Fails = 0
}
