// Package cmd defines the command line flags shared by coolproxy's binaries.
package cmd

import (
	"github.com/urfave/cli/v2"
)

var (
	// ConfigFileFlag specifies a YAML file providing flag values, loaded via
	// altsrc before the other flags are read.
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config-file",
		Usage: "Load flag values from this YAML file",
	}
	// UpstreamConfigFlag points at one or more upstream pool definitions
	// consumed by the config package (distinct from ConfigFileFlag, which
	// configures the process itself). Each file becomes one named pool in
	// proxy.Admin; repeat the flag to serve several pools from one process.
	UpstreamConfigFlag = &cli.StringSliceFlag{
		Name:     "upstream-config",
		Usage:    "Path to a YAML file describing an upstream pool; may be repeated",
		Required: true,
	}
	// ListenAddrFlag is the address the reverse proxy listens on.
	ListenAddrFlag = &cli.StringFlag{
		Name:  "listen-addr",
		Usage: "Address for the proxy to listen on",
		Value: ":8080",
	}
	// AdminAddrFlag is the address the admin/introspection server listens on.
	AdminAddrFlag = &cli.StringFlag{
		Name:  "admin-addr",
		Usage: "Address for the admin/introspection server to listen on",
		Value: ":8081",
	}
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormat specifies the log output encoding.
	LogFormat = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Log format to use (text, fluentd, json)",
		Value: "text",
	}
	// LogFileName specifies a file to additionally mirror logs to.
	LogFileName = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Log file to write, in addition to stdout",
	}
	// DataDirFlag defines a path on disk for any local state.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for local state",
		Value: DefaultDataDir(),
	}
	// DisableMonitoringFlag defines a flag to disable the metrics collection.
	DisableMonitoringFlag = &cli.BoolFlag{
		Name:  "disable-monitoring",
		Usage: "Disable the prometheus metrics service",
	}
	// MonitoringPortFlag defines the http port used to serve prometheus metrics.
	MonitoringPortFlag = &cli.Int64Flag{
		Name:  "monitoring-port",
		Usage: "Port used to listen and respond with metrics for prometheus",
		Value: 8082,
	}
)
