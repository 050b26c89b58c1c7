package config

import (
	"context"
	"net"
	"strconv"

	mapset "github.com/deckarep/golang-set"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/coolproxy/coolproxy/upstream"
)

// dnsCacheSize bounds the number of distinct dynamic hosts whose resolved
// addresses are cached between builds. Far larger than any realistic
// deployment's host count; it exists to bound memory, not to expire
// entries on any schedule (this core does no dynamic reconfiguration).
const dnsCacheSize = 256

// Resolver turns an UpstreamConfig into an upstream.PoolBuilder, resolving
// any hostnames to concrete addresses. A single Resolver may be shared
// across concurrent builds: resolution of the same host is collapsed via
// singleflight, and answers are cached in a bounded LRU so repeated builds
// (e.g. a CLI that rebuilds several named pools at startup) don't refetch.
type Resolver struct {
	net   *net.Resolver
	cache *lru.Cache
	group singleflight.Group
}

// NewResolver returns a Resolver using net.DefaultResolver for lookups.
func NewResolver() *Resolver {
	cache, err := lru.New(dnsCacheSize)
	if err != nil {
		// lru.New only errors when size <= 0; dnsCacheSize is a positive
		// constant, so this is unreachable.
		panic(err)
	}
	return &Resolver{net: net.DefaultResolver, cache: cache}
}

// Build resolves cfg and returns the upstream.PoolBuilder ready to call
// Build() on.
func (r *Resolver) Build(ctx context.Context, cfg *UpstreamConfig) (*upstream.PoolBuilder, error) {
	b := upstream.NewPoolBuilder(cfg.Name)

	if cfg.DynamicHost != "" {
		addrs, err := r.resolve(ctx, cfg.DynamicHost)
		if err != nil {
			return nil, errors.Wrapf(upstream.ErrResolveFailed, "upstream %q: %v", cfg.Name, err)
		}
		b.DynamicAddrs = addrs
		return b, nil
	}

	specs := make([]upstream.ServerSpec, 0, len(cfg.Servers))
	for _, srv := range cfg.Servers {
		addrs, err := r.resolve(ctx, srv.Addr)
		if err != nil {
			return nil, errors.Wrapf(err, "server %q", srv.Name)
		}
		failTimeout, err := srv.failTimeout()
		if err != nil {
			return nil, err
		}
		specs = append(specs, upstream.ServerSpec{
			Name:        srv.Name,
			Addrs:       addrs,
			Weight:      srv.Weight,
			MaxFails:    srv.maxFails(),
			FailTimeout: failTimeout,
			Backup:      srv.Backup,
			Down:        srv.Down,
		})
	}
	b.Servers = specs
	return b, nil
}

// resolve expands "host:port" into one net.Addr per A/AAAA record,
// deduplicated, with in-flight collapsing and LRU caching of the host's
// address list.
func (r *Resolver) resolve(ctx context.Context, hostport string) ([]net.Addr, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return nil, errors.Wrapf(upstream.ErrNoPort, "%q: %v", hostport, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Wrapf(err, "%q: invalid port", hostport)
	}

	ips, err := r.lookupHost(ctx, host)
	if err != nil {
		return nil, err
	}

	seen := mapset.NewSet()
	addrs := make([]net.Addr, 0, len(ips))
	for _, ip := range ips {
		key := ip.String()
		if !seen.Add(key) {
			continue
		}
		addrs = append(addrs, &net.TCPAddr{IP: ip, Port: port})
	}
	return addrs, nil
}

func (r *Resolver) lookupHost(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	if cached, ok := r.cache.Get(host); ok {
		return cached.([]net.IP), nil
	}

	v, err, _ := r.group.Do(host, func() (interface{}, error) {
		ips, err := r.net.LookupIP(ctx, "ip", host)
		if err != nil {
			return nil, err
		}
		r.cache.Add(host, ips)
		return ips, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %q", host)
	}
	return v.([]net.IP), nil
}
