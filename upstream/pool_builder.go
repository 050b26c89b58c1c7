package upstream

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Default values applied by PoolBuilder when a ServerSpec omits them,
// matching nginx's upstream server directive defaults.
const (
	DefaultWeight     = 1
	DefaultMaxFails    = 1
	DefaultFailTimeout = 10 * time.Second
)

// ServerSpec describes one configured upstream server: one or more resolved
// addresses (a server with multiple A records expands to one Peer per
// address, all sharing the server's weight/max_fails/fail_timeout/down),
// plus the backup/down policy flags.
type ServerSpec struct {
	Name        string
	Addrs       []net.Addr
	Weight      int
	MaxFails    int
	FailTimeout time.Duration
	Backup      bool
	Down        bool
}

func (s ServerSpec) validate() error {
	if len(s.Addrs) == 0 {
		return errors.Errorf("server %q: no resolved addresses", s.Name)
	}
	if s.Weight < 0 {
		return errors.Errorf("server %q: weight must be >= 1, got %d", s.Name, s.Weight)
	}
	return nil
}

func (s ServerSpec) weight() int {
	if s.Weight == 0 {
		return DefaultWeight
	}
	return s.Weight
}

func (s ServerSpec) maxFails() int {
	if s.MaxFails == 0 {
		return DefaultMaxFails
	}
	return s.MaxFails
}

func (s ServerSpec) failTimeout() time.Duration {
	if s.FailTimeout == 0 {
		return DefaultFailTimeout
	}
	return s.FailTimeout
}

// PoolBuilder converts a parsed configuration into one or two PeerPools: a
// primary pool, and an optional backup pool linked through Next.
type PoolBuilder struct {
	// Name is the pool's display name.
	Name string
	// Servers is the configured server list. Mutually exclusive with
	// DynamicAddrs.
	Servers []ServerSpec
	// DynamicAddrs, if non-empty, builds an "implicit pool": a single
	// dynamically-resolved host, all weight 1, max_fails=1,
	// fail_timeout=10s, no backup tier.
	DynamicAddrs []net.Addr
}

// NewPoolBuilder returns a PoolBuilder for the named upstream.
func NewPoolBuilder(name string) *PoolBuilder {
	return &PoolBuilder{Name: name}
}

// Build validates Servers (or DynamicAddrs) and returns the resulting
// primary PeerPool, with Next pointing at a backup PeerPool if any backup
// server was configured.
func (b *PoolBuilder) Build() (*PeerPool, error) {
	if len(b.DynamicAddrs) > 0 {
		return b.buildDynamic(), nil
	}
	return b.buildConfigured()
}

func (b *PoolBuilder) buildDynamic() *PeerPool {
	peers := make([]*Peer, len(b.DynamicAddrs))
	for i, addr := range b.DynamicAddrs {
		peers[i] = newPeer(addr.String(), addr, DefaultWeight, DefaultMaxFails, DefaultFailTimeout, false)
	}
	return newPool(b.Name, peers)
}

func (b *PoolBuilder) buildConfigured() (*PeerPool, error) {
	var validationErr error
	for _, srv := range b.Servers {
		if err := srv.validate(); err != nil {
			validationErr = multierr.Append(validationErr, err)
		}
	}
	if validationErr != nil {
		return nil, errors.Wrap(validationErr, "upstream: invalid server configuration")
	}

	var primary, backup []*Peer
	for _, srv := range b.Servers {
		dest := &primary
		if srv.Backup {
			dest = &backup
		}
		for _, addr := range srv.Addrs {
			name := srv.Name
			if name == "" {
				name = addr.String()
			}
			*dest = append(*dest, newPeer(name, addr, srv.weight(), srv.maxFails(), srv.failTimeout(), srv.Down))
		}
	}

	if len(primary) == 0 {
		return nil, errors.Wrapf(ErrNoPeers, "upstream %q", b.Name)
	}

	pool := newPool(b.Name, primary)
	if len(backup) > 0 {
		pool.Next = newPool(b.Name+"-backup", backup)
	}
	return pool, nil
}

func newPeer(name string, addr net.Addr, weight, maxFails int, failTimeout time.Duration, down bool) *Peer {
	return &Peer{
		Addr:            addr,
		Name:            name,
		Weight:          weight,
		EffectiveWeight: weight,
		MaxFails:        maxFails,
		FailTimeout:     failTimeout,
		Down:            down,
	}
}

func newPool(name string, peers []*Peer) *PeerPool {
	total := 0
	for _, p := range peers {
		total += p.Weight
	}
	return &PeerPool{
		Peers:       peers,
		Name:        name,
		TotalWeight: total,
		Single:      len(peers) == 1,
		Weighted:    total != len(peers),
	}
}
