package proxy

import (
	"net"

	"github.com/coolproxy/coolproxy/upstream"
	"github.com/google/uuid"
)

// Conn pairs a dialed net.Conn with the Peer it was dialed to and the
// selection state it must be released against: callers dial through
// Connector.Get, use the embedded net.Conn, then call Connector.Free with
// the outcome.
type Conn struct {
	net.Conn

	// ID uniquely identifies this connection for admin/event-stream
	// correlation; it has no bearing on selection.
	ID string

	Peer  *upstream.Peer
	state *upstream.AttemptState
}

func newConn(id string, raw net.Conn, peer *upstream.Peer, state *upstream.AttemptState) *Conn {
	return &Conn{Conn: raw, ID: id, Peer: peer, state: state}
}

func newConnID() string {
	return uuid.NewString()
}
