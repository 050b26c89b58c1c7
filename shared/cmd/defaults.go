package cmd

import (
	"path/filepath"
	"runtime"

	"github.com/coolproxy/coolproxy/shared/fileutil"
)

// DefaultDataDir is the default data directory for coolproxy's local state.
func DefaultDataDir() string {
	home := fileutil.HomeDir()
	if home == "" {
		// Can't guess a stable location; caller handles the empty string.
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "CoolProxy")
	case "windows":
		return filepath.Join(home, "AppData", "Local", "CoolProxy")
	default:
		return filepath.Join(home, ".coolproxy")
	}
}
