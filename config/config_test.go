package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "upstream.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_Servers(t *testing.T) {
	path := writeTempConfig(t, `
name: api
servers:
  - name: a
    addr: 10.0.0.1:8080
    weight: 5
  - name: b
    addr: 10.0.0.2:8080
    backup: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "api", cfg.Name)
	require.Len(t, cfg.Servers, 2)
	require.Equal(t, 5, cfg.Servers[0].Weight)
	require.True(t, cfg.Servers[1].Backup)
}

func TestLoad_DynamicHost(t *testing.T) {
	path := writeTempConfig(t, `
name: api
dynamic_host: backend.svc.local:8080
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "backend.svc.local:8080", cfg.DynamicHost)
	require.Empty(t, cfg.Servers)
}

func TestLoad_MissingName(t *testing.T) {
	path := writeTempConfig(t, `
servers:
  - addr: 10.0.0.1:8080
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingServersAndHost(t *testing.T) {
	path := writeTempConfig(t, `
name: api
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(os.TempDir(), "does-not-exist-upstream.yaml"))
	require.Error(t, err)
}

func TestServerConfig_FailTimeout(t *testing.T) {
	s := ServerConfig{Name: "a", FailTimeout: "30s"}
	d, err := s.failTimeout()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, d)

	zero := ServerConfig{Name: "b"}
	d, err = zero.failTimeout()
	require.NoError(t, err)
	require.Zero(t, d)

	bad := ServerConfig{Name: "c", FailTimeout: "not-a-duration"}
	_, err = bad.failTimeout()
	require.Error(t, err)
}

func TestServerConfig_MaxFails(t *testing.T) {
	require.Equal(t, 0, ServerConfig{MaxFails: 3, MaxFailsNever: true}.maxFails())
	require.Equal(t, 3, ServerConfig{MaxFails: 3}.maxFails())
	require.Equal(t, 0, ServerConfig{}.maxFails())
}

func TestSave_RoundTrips(t *testing.T) {
	path := writeTempConfig(t, `
name: api
servers:
  - name: a
    addr: 10.0.0.1:8080
    weight: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Servers[0].Down = true
	require.NoError(t, Save(path, cfg))

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, reloaded.Servers[0].Down)
	require.Equal(t, 5, reloaded.Servers[0].Weight)
}
