// Package upstream implements a weighted smooth round-robin peer selector
// for a reverse-proxy upstream, in the style of nginx's
// ngx_http_upstream_round_robin module.
//
// A PeerPool holds an ordered set of Peers for one tier (primary or backup)
// and optionally links to a backup PeerPool. A connector obtains an
// AttemptState for a pool via Selector.InitAttempt, repeatedly calls
// Selector.Choose to obtain a Peer to dial, and reports the outcome of each
// dial with Selector.Release. When a pool is exhausted the Selector swaps in
// the linked backup pool and resets the per-request tried bitset.
//
// Peer selection uses the same smoothing algorithm as nginx: each call gives
// every eligible peer a boost proportional to its effective weight, picks
// the peer with the largest accumulated weight, and debits it by the total
// boost handed out this round. Failures reduce a peer's effective weight
// immediately; recovery is one unit per opportunity.
package upstream
