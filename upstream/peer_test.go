package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPeer_State_Down(t *testing.T) {
	p := &Peer{Down: true}
	require.Equal(t, PeerDown, p.State(time.Now()))
}

func TestPeer_State_Penalised(t *testing.T) {
	now := time.Now()
	p := &Peer{MaxFails: 2, Fails: 2, FailTimeout: 10 * time.Second, Checked: now}
	require.Equal(t, PeerPenalised, p.State(now.Add(time.Second)))
}

func TestPeer_State_EligibleAfterWindow(t *testing.T) {
	now := time.Now()
	p := &Peer{MaxFails: 2, Fails: 2, FailTimeout: 10 * time.Second, Checked: now}
	require.Equal(t, PeerEligible, p.State(now.Add(11*time.Second)))
}

func TestPeer_State_NeverEjected(t *testing.T) {
	now := time.Now()
	p := &Peer{MaxFails: 0, Fails: 1000, Checked: now}
	require.Equal(t, PeerEligible, p.State(now))
}

func TestPeer_ResetFailures(t *testing.T) {
	p := &Peer{Fails: 5}
	p.resetFailures()
	require.Zero(t, p.Fails)
}

func TestPeer_SessionRoundTrip(t *testing.T) {
	p := &Peer{}
	require.Nil(t, p.Session())

	old := p.SetSession("first")
	require.Nil(t, old)
	require.Equal(t, "first", p.Session())

	old = p.SetSession("second")
	require.Equal(t, "first", old)
	require.Equal(t, "second", p.Session())
}

func TestPeerState_String(t *testing.T) {
	require.Equal(t, "eligible", PeerEligible.String())
	require.Equal(t, "penalised", PeerPenalised.String())
	require.Equal(t, "down", PeerDown.String())
	require.Equal(t, "unknown", PeerState(99).String())
}
