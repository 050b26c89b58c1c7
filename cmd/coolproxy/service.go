package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// httpService wraps an *http.Server as a shared.Service: it only binds the
// listener once Start is called, reports a bind failure through Status
// rather than crashing the process, and shuts down with a bounded timeout,
// matching shared/prometheus.Service's idiom.
type httpService struct {
	name       string
	server     *http.Server
	log        *logrus.Entry
	failStatus error
}

func newHTTPService(name, addr string, handler http.Handler) *httpService {
	return &httpService{
		name:   name,
		server: &http.Server{Addr: addr, Handler: handler},
		log:    logrus.WithField("prefix", name),
	}
}

func (s *httpService) Start() {
	go func() {
		host, port, err := net.SplitHostPort(s.server.Addr)
		if err == nil {
			if host == "" {
				host = "127.0.0.1"
			}
			conn, dialErr := net.DialTimeout("tcp", net.JoinHostPort(host, port), time.Second)
			if dialErr == nil {
				_ = conn.Close()
				s.log.WithField("address", s.server.Addr).Warn("Port already in use; cannot start")
				return
			}
		}

		s.log.WithField("address", s.server.Addr).Info("Starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("Server exited unexpectedly")
			s.failStatus = err
		}
	}()
}

func (s *httpService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *httpService) Status() error {
	return s.failStatus
}

// configWatcherService logs that a restart is required whenever one of the
// watched upstream config files changes. It deliberately never reloads a
// live pool; fsnotify here enforces, rather than violates, the no-hot-swap
// rule by making the operator's next step explicit.
type configWatcherService struct {
	watcher *fsnotify.Watcher
	paths   []string
	log     *logrus.Entry
	done    chan struct{}
}

func newConfigWatcherService(paths []string) (*configWatcherService, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watching %q: %w", p, err)
		}
	}
	return &configWatcherService{
		watcher: w,
		paths:   paths,
		log:     logrus.WithField("prefix", "config-watcher"),
		done:    make(chan struct{}),
	}, nil
}

func (s *configWatcherService) Start() {
	go func() {
		for {
			select {
			case event, ok := <-s.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					s.log.WithField("file", event.Name).Warn(
						"Upstream config file changed on disk; restart coolproxy to pick up the new pool definition")
				}
			case err, ok := <-s.watcher.Errors:
				if !ok {
					return
				}
				s.log.WithError(err).Error("Watching config files")
			case <-s.done:
				return
			}
		}
	}()
}

func (s *configWatcherService) Stop() error {
	close(s.done)
	return s.watcher.Close()
}

func (s *configWatcherService) Status() error {
	return nil
}

func joinPaths(paths []string) string {
	return strings.Join(paths, ", ")
}
