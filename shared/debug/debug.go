package debug

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	pprofrt "runtime/pprof"
	"runtime/trace"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "debug")

var (
	cpuProfileFile *os.File
	traceFile      *os.File
)

// Setup parses the profiling flags and starts whichever of pprof serving,
// CPU profiling, and execution tracing were requested. The caller must
// call Exit before the process terminates so any open profile files are
// flushed and closed.
func Setup(ctx *cli.Context) error {
	if rate := ctx.Int(MemProfileRateFlag.Name); rate != 0 {
		runtime.MemProfileRate = rate
	}

	if ctx.Bool(PProfFlag.Name) {
		address := fmt.Sprintf("%s:%d", ctx.String(PProfAddrFlag.Name), ctx.Int(PProfPortFlag.Name))
		startPProf(address)
	}

	if path := ctx.String(CPUProfileFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := pprofrt.StartCPUProfile(f); err != nil {
			return err
		}
		cpuProfileFile = f
		log.WithField("file", path).Info("CPU profiling enabled")
	}

	if path := ctx.String(TraceFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := trace.Start(f); err != nil {
			return err
		}
		traceFile = f
		log.WithField("file", path).Info("Execution tracing enabled")
	}

	return nil
}

// Exit stops any profiling started by Setup and flushes the resulting
// files to disk. Safe to call even when no profiling was enabled.
func Exit() {
	if cpuProfileFile != nil {
		pprofrt.StopCPUProfile()
		if err := cpuProfileFile.Close(); err != nil {
			log.WithError(err).Error("Failed to close CPU profile file")
		}
		cpuProfileFile = nil
	}
	if traceFile != nil {
		trace.Stop()
		if err := traceFile.Close(); err != nil {
			log.WithError(err).Error("Failed to close trace file")
		}
		traceFile = nil
	}
}

func startPProf(address string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	log.WithField("address", address).Info("Starting pprof server")
	go func() {
		if err := http.ListenAndServe(address, mux); err != nil {
			log.WithError(err).Error("Failed to start pprof server")
		}
	}()
}
