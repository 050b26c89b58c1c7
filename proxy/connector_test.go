package proxy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/coolproxy/coolproxy/upstream"
	"github.com/stretchr/testify/require"
)

// listenerPeer starts a TCP listener that accepts and immediately closes
// connections, returning a *upstream.Peer pointed at it.
func listenerPeer(t *testing.T, name string) (*upstream.Peer, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	return &upstream.Peer{Name: name, Weight: 1, EffectiveWeight: 1, Addr: ln.Addr()}, ln
}

func TestConnector_GetFree(t *testing.T) {
	peer, ln := listenerPeer(t, "a")
	defer ln.Close()

	pool := &upstream.PeerPool{Peers: []*upstream.Peer{peer}, Single: true}
	connector := NewConnector(pool, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := connector.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", conn.Peer.Name)
	require.NotEmpty(t, conn.ID)

	connector.Free(conn, upstream.Ok)
}

func TestConnector_GetFailsOverOnDialError(t *testing.T) {
	dead := &upstream.Peer{Name: "dead", Weight: 1, EffectiveWeight: 1, Addr: &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1}}
	live, ln := listenerPeer(t, "live")
	defer ln.Close()

	pool := &upstream.PeerPool{Peers: []*upstream.Peer{dead, live}}
	pool.TotalWeight = 2

	connector := NewConnector(pool, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, err := connector.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "live", conn.Peer.Name)
	connector.Free(conn, upstream.Ok)
}

func TestConnector_SessionRoundTrip(t *testing.T) {
	peer := &upstream.Peer{Name: "a", Weight: 1, EffectiveWeight: 1}
	pool := &upstream.PeerPool{Peers: []*upstream.Peer{peer}, Single: true}
	connector := NewConnector(pool, nil)

	require.Nil(t, connector.Session(peer))
	connector.SetSession(peer, nil)
	require.Nil(t, connector.Session(peer))
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Publish(ev Event) {
	s.events = append(s.events, ev)
}

func TestConnector_PublishesEvents(t *testing.T) {
	peer, ln := listenerPeer(t, "a")
	defer ln.Close()

	pool := &upstream.PeerPool{Peers: []*upstream.Peer{peer}, Single: true}
	sink := &recordingSink{}
	connector := NewConnector(pool, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := connector.Get(ctx)
	require.NoError(t, err)
	connector.Free(conn, upstream.Ok)

	require.NotEmpty(t, sink.events)
	require.Equal(t, "selected", sink.events[0].Kind)
}
