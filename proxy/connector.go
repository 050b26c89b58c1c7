package proxy

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/coolproxy/coolproxy/upstream"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "proxy")

// Event is a single selection/dial/release occurrence, published to
// whatever EventSink the Connector was built with. Admin's SSE stream is
// the primary consumer.
type Event struct {
	Pool string
	Peer string
	Kind string // "selected", "dialed", "failed", "released", "busy"
}

// EventSink receives Connector events. Admin's SSE broadcaster implements
// this; a nil sink is valid and simply drops events.
type EventSink interface {
	Publish(Event)
}

type noopSink struct{}

func (noopSink) Publish(Event) {}

// Connector drives a Selector against a PeerPool to produce live
// connections, implementing a get/free/set_session/save_session contract
// over a real net.Dialer.
type Connector struct {
	pool     *upstream.PeerPool
	selector *upstream.Selector
	dialer   *net.Dialer
	sink     EventSink
}

// NewConnector returns a Connector for pool using a default net.Dialer with
// a 2s connect timeout, matching the pattern of short, bounded dial
// attempts expected by the retry loop in Get.
func NewConnector(pool *upstream.PeerPool, sink EventSink) *Connector {
	if sink == nil {
		sink = noopSink{}
	}
	return &Connector{
		pool:     pool,
		selector: upstream.NewSelector(),
		dialer:   &net.Dialer{Timeout: 2 * time.Second},
		sink:     sink,
	}
}

// Get dials a peer chosen by the Selector, retrying across the pool (and
// its backup tier) until a dial succeeds or the attempt's retry budget is
// exhausted. The returned Conn must be passed to Free exactly once.
func (c *Connector) Get(ctx context.Context) (*Conn, error) {
	state := c.selector.InitAttempt(c.pool)

	for {
		peer, err := c.selector.Choose(state)
		if err != nil {
			if upstream.IsBusy(err) {
				c.sink.Publish(Event{Pool: c.pool.Name, Kind: "busy"})
			}
			return nil, err
		}
		c.sink.Publish(Event{Pool: c.pool.Name, Peer: peer.Name, Kind: "selected"})

		raw, dialErr := c.dialer.DialContext(ctx, "tcp", peer.Addr.String())
		if dialErr == nil {
			c.sink.Publish(Event{Pool: c.pool.Name, Peer: peer.Name, Kind: "dialed"})
			return newConn(newConnID(), raw, peer, state), nil
		}

		c.sink.Publish(Event{Pool: c.pool.Name, Peer: peer.Name, Kind: "failed"})
		c.selector.Release(state, upstream.Failed)

		if state.TriesRemaining <= 0 {
			return nil, errors.Wrapf(dialErr, "dialing peer %q", peer.Name)
		}
	}
}

// Free reports the outcome of using conn and releases its selection state.
// Every Conn returned by Get must reach exactly one Free call.
func (c *Connector) Free(conn *Conn, outcome upstream.Outcome) {
	c.selector.Release(conn.state, outcome)
	c.sink.Publish(Event{Pool: c.pool.Name, Peer: conn.Peer.Name, Kind: "released"})
	if err := conn.Conn.Close(); err != nil {
		log.WithError(err).WithField("peer", conn.Peer.Name).Debug("closing connection")
	}
}

// SetSession stores a TLS client session for future reuse against peer,
// replacing and discarding any previously cached handle.
func (c *Connector) SetSession(peer *upstream.Peer, session *tls.ClientSessionState) {
	c.pool.Lock()
	defer c.pool.Unlock()
	peer.SetSession(session)
}

// SaveSession is the post-handshake counterpart to SetSession: it persists
// the session negotiated on this connection so the next Get against the
// same peer can attempt resumption.
func (c *Connector) SaveSession(conn *Conn, session *tls.ClientSessionState) {
	c.SetSession(conn.Peer, session)
}

// Session returns peer's cached TLS session, or nil if none is cached.
func (c *Connector) Session(peer *upstream.Peer) *tls.ClientSessionState {
	c.pool.RLock()
	defer c.pool.RUnlock()
	session, _ := peer.Session().(*tls.ClientSessionState)
	return session
}
