// Package debug exposes pprof and execution-trace profiling, wired to a
// handful of CLI flags, the way most long-running Go services do it.
package debug

import "github.com/urfave/cli/v2"

var (
	// PProfFlag turns on the pprof HTTP endpoint.
	PProfFlag = &cli.BoolFlag{
		Name:  "pprof",
		Usage: "Serve the pprof endpoints on PProfAddrFlag:PProfPortFlag",
	}
	// PProfAddrFlag is the interface the pprof HTTP server binds to.
	PProfAddrFlag = &cli.StringFlag{
		Name:  "pprofaddr",
		Usage: "pprof HTTP server listening interface",
		Value: "127.0.0.1",
	}
	// PProfPortFlag is the port the pprof HTTP server binds to.
	PProfPortFlag = &cli.IntFlag{
		Name:  "pprofport",
		Usage: "pprof HTTP server listening port",
		Value: 6060,
	}
	// MemProfileRateFlag sets runtime.MemProfileRate.
	MemProfileRateFlag = &cli.IntFlag{
		Name:  "memprofilerate",
		Usage: "Turn on memory profiling with the given rate",
		Value: 512 * 1024,
	}
	// CPUProfileFlag writes a CPU profile to the given file for the
	// lifetime of the process.
	CPUProfileFlag = &cli.StringFlag{
		Name:  "cpuprofile",
		Usage: "Write a CPU profile to the given file",
	}
	// TraceFlag writes a runtime execution trace to the given file for
	// the lifetime of the process.
	TraceFlag = &cli.StringFlag{
		Name:  "trace",
		Usage: "Write an execution trace to the given file",
	}
)
