package version

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	v := GetVersion()
	if !strings.HasPrefix(v, "coolproxy/") {
		t.Fatalf("expected version to start with coolproxy/, got %q", v)
	}
	if !strings.Contains(v, runtimeVersionMarker()) {
		t.Fatalf("expected version to embed the Go runtime version, got %q", v)
	}
}

func runtimeVersionMarker() string {
	return "go"
}
