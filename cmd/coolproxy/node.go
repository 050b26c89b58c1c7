package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/coolproxy/coolproxy/config"
	"github.com/coolproxy/coolproxy/proxy"
	"github.com/coolproxy/coolproxy/shared"
	"github.com/coolproxy/coolproxy/shared/cmd"
	"github.com/coolproxy/coolproxy/shared/debug"
	"github.com/coolproxy/coolproxy/shared/fileutil"
	"github.com/coolproxy/coolproxy/shared/prometheus"
	"github.com/coolproxy/coolproxy/upstream"
)

var log = logrus.WithField("prefix", "node")

// Node handles the lifecycle of one coolproxy process: it loads the
// configured upstream pools, wires the proxy/admin/metrics services around
// them, and registers all of it with a shared.ServiceRegistry, mirroring
// the teacher's BeaconNode shape.
type Node struct {
	ctx      *cli.Context
	services *shared.ServiceRegistry
	lock     sync.RWMutex
	stop     chan struct{}
}

// New loads every configured upstream pool and registers the services that
// serve them.
func New(ctx *cli.Context) (*Node, error) {
	n := &Node{
		ctx:      ctx,
		services: shared.NewServiceRegistry(),
		stop:     make(chan struct{}),
	}

	if dataDir := ctx.String(cmd.DataDirFlag.Name); dataDir != "" {
		if err := fileutil.MkdirAll(dataDir); err != nil {
			return nil, errors.Wrap(err, "creating data directory")
		}
	}

	paths := ctx.StringSlice(cmd.UpstreamConfigFlag.Name)
	pools, primary, err := loadPools(context.Background(), paths)
	if err != nil {
		return nil, err
	}

	var metricsAddr, metricsURL string
	if !ctx.Bool(cmd.DisableMonitoringFlag.Name) {
		metricsAddr = ":" + strconv.FormatInt(ctx.Int64(cmd.MonitoringPortFlag.Name), 10)
		metricsURL = "http://127.0.0.1" + metricsAddr + "/metrics"
	}

	admin := proxy.NewAdmin(pools, metricsURL)
	connector := proxy.NewConnector(pools[primary], admin)
	server := proxy.NewServer(connector)

	if err := n.services.RegisterService(newHTTPService("proxy", ctx.String(cmd.ListenAddrFlag.Name), server)); err != nil {
		return nil, err
	}
	if err := n.services.RegisterService(newHTTPService("admin", ctx.String(cmd.AdminAddrFlag.Name), admin.Handler())); err != nil {
		return nil, err
	}

	watcher, err := newConfigWatcherService(paths)
	if err != nil {
		return nil, errors.Wrap(err, "starting upstream config watcher")
	}
	if err := n.services.RegisterService(watcher); err != nil {
		return nil, err
	}

	if metricsAddr != "" {
		if err := n.services.RegisterService(prometheus.NewPrometheusService(metricsAddr, n.services, pools)); err != nil {
			return nil, err
		}
	}

	log.WithField("pools", joinPaths(paths)).Info("Loaded upstream pools")
	return n, nil
}

// loadPools loads and resolves every upstream config file, returning the
// pools keyed by name plus the name of the first (the one the demo proxy
// server forwards to).
func loadPools(ctx context.Context, paths []string) (map[string]*upstream.PeerPool, string, error) {
	if len(paths) == 0 {
		return nil, "", errors.New("no upstream config files given")
	}

	resolver := config.NewResolver()
	pools := make(map[string]*upstream.PeerPool, len(paths))
	var primary string

	for i, path := range paths {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		builder, err := resolver.Build(ctx, cfg)
		if err != nil {
			return nil, "", errors.Wrapf(err, "building pool %q", cfg.Name)
		}
		pool, err := builder.Build()
		if err != nil {
			return nil, "", errors.Wrapf(err, "pool %q", cfg.Name)
		}
		pools[cfg.Name] = pool
		if i == 0 {
			primary = cfg.Name
		}
	}
	return pools, primary, nil
}

// Start starts every registered service and blocks until an interrupt or
// Close stops the node.
func (n *Node) Start() {
	n.lock.Lock()
	log.Info("Starting coolproxy node")
	n.services.StartAll()
	stop := n.stop
	n.lock.Unlock()

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		debug.Exit()
		panic("panic closing coolproxy node")
	}()

	<-stop
}

// Close stops every registered service and unblocks Start.
func (n *Node) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.services.StopAll()
	log.Info("Stopping coolproxy node")
	close(n.stop)
}
