package upstream

import "github.com/pkg/errors"

// Construction-time configuration errors. PoolBuilder.Build returns
// ErrNoPeers; ErrNoPort and ErrResolveFailed come from config.Resolver while
// it resolves addresses. None of these are recovered locally; they are
// surfaced to the caller verbatim (wrapped with context via
// github.com/pkg/errors where useful).
var (
	// ErrNoPeers is returned when a pool's server list has no non-backup
	// members.
	ErrNoPeers = errors.New("upstream: no peers configured")
	// ErrNoPort is returned when a server address or dynamic host has no
	// port to connect on.
	ErrNoPort = errors.New("upstream: no port for dynamically resolved host")
	// ErrResolveFailed is returned when a dynamic host fails DNS
	// resolution.
	ErrResolveFailed = errors.New("upstream: host resolution failed")
)

// busyError is returned by Selector.Choose when every peer in every
// reachable tier is ineligible this request. It carries the pool name so
// callers can report which upstream was exhausted.
type busyError struct {
	pool string
}

func (e *busyError) Error() string {
	return "upstream: all peers busy for pool " + e.pool
}

// IsBusy reports whether err is the "all peers exhausted" condition, nginx's
// NGX_BUSY return code from the upstream peer selector.
func IsBusy(err error) bool {
	_, ok := err.(*busyError)
	return ok
}
