package debug

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

func newTestContext(t *testing.T, cpuProfilePath string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range []cli.Flag{PProfFlag, PProfAddrFlag, PProfPortFlag, MemProfileRateFlag, CPUProfileFlag, TraceFlag} {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	app := cli.NewApp()
	ctx := cli.NewContext(app, set, nil)
	if cpuProfilePath != "" {
		if err := ctx.Set(CPUProfileFlag.Name, cpuProfilePath); err != nil {
			t.Fatalf("set cpuprofile flag: %v", err)
		}
	}
	return ctx
}

func TestSetupExit_NoFlagsIsNoop(t *testing.T) {
	ctx := newTestContext(t, "")
	if err := Setup(ctx); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	Exit()
}

func TestSetupExit_CPUProfileWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cpu.prof")
	ctx := newTestContext(t, path)

	if err := Setup(ctx); err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	Exit()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected profile file to exist: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected profile file to be non-empty")
	}
}
