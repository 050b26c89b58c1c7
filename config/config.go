package config

import (
	"io/ioutil"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// ServerConfig is the YAML shape of one upstream server directive, mirroring
// nginx's server{} block: address, weight, failure budget, and the
// backup/down flags.
type ServerConfig struct {
	Name string `json:"name,omitempty"`
	// Addr is "host:port". host may resolve to more than one address, in
	// which case the server expands to one Peer per address.
	Addr string `json:"addr"`
	// Weight defaults to 1 when zero.
	Weight int `json:"weight,omitempty"`
	// MaxFails defaults to 1 when zero; 0 is not expressible here because
	// "never eject" is requested with MaxFailsNever below.
	MaxFails int `json:"max_fails,omitempty"`
	// MaxFailsNever, when true, overrides MaxFails to 0 ("never eject").
	MaxFailsNever bool `json:"max_fails_never,omitempty"`
	// FailTimeout is a Go duration string (e.g. "10s"); defaults to 10s.
	FailTimeout string `json:"fail_timeout,omitempty"`
	Backup      bool   `json:"backup,omitempty"`
	Down        bool   `json:"down,omitempty"`
}

func (s ServerConfig) failTimeout() (time.Duration, error) {
	if s.FailTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.FailTimeout)
	if err != nil {
		return 0, errors.Wrapf(err, "server %q: invalid fail_timeout %q", s.Name, s.FailTimeout)
	}
	return d, nil
}

func (s ServerConfig) maxFails() int {
	if s.MaxFailsNever {
		return 0
	}
	return s.MaxFails
}

// UpstreamConfig is the top-level YAML document for one upstream pool.
type UpstreamConfig struct {
	Name string `json:"name"`
	// Servers is mutually exclusive with DynamicHost.
	Servers []ServerConfig `json:"servers,omitempty"`
	// DynamicHost triggers the implicit-pool path: a single "host:port"
	// resolved at build time, all weight 1.
	DynamicHost string `json:"dynamic_host,omitempty"`
}

// Load reads and parses an UpstreamConfig from a YAML file at path.
func Load(path string) (*UpstreamConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading upstream config %q", path)
	}
	var cfg UpstreamConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing upstream config %q", path)
	}
	if cfg.Name == "" {
		return nil, errors.Errorf("upstream config %q: name is required", path)
	}
	if len(cfg.Servers) == 0 && cfg.DynamicHost == "" {
		return nil, errors.Errorf("upstream config %q: either servers or dynamic_host is required", path)
	}
	return &cfg, nil
}

// Save writes cfg back to path as YAML, for tools (coolproxyctl's "down"
// subcommand) that edit a server's directives on disk. It never touches a
// running pool: the operator must restart coolproxy to pick up the change,
// per this project's no-hot-swap non-goal.
func Save(path string, cfg *UpstreamConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrapf(err, "marshaling upstream config %q", path)
	}
	if err := ioutil.WriteFile(path, data, 0600); err != nil {
		return errors.Wrapf(err, "writing upstream config %q", path)
	}
	return nil
}
