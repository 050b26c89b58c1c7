package prometheus

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coolproxy/coolproxy/shared"
	"github.com/coolproxy/coolproxy/upstream"
)

func buildPool(t *testing.T, name string, down ...bool) *upstream.PeerPool {
	t.Helper()
	builder := upstream.NewPoolBuilder(name)
	for i, isDown := range down {
		builder.Servers = append(builder.Servers, upstream.ServerSpec{
			Name:  name + string(rune('a'+i)),
			Addrs: []net.Addr{&net.TCPAddr{IP: net.IPv4(127, 0, 0, byte(i+1)), Port: 80}},
			Down:  isDown,
		})
	}
	pool, err := builder.Build()
	require.NoError(t, err)
	return pool
}

func TestService_HealthzOKWhenEverythingUp(t *testing.T) {
	registry := shared.NewServiceRegistry()
	pools := map[string]*upstream.PeerPool{"api": buildPool(t, "api", false, false)}
	svc := NewPrometheusService(":0", registry, pools)

	rec := httptest.NewRecorder()
	svc.healthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pool api: OK (0/2 peers down)")
}

func TestService_HealthzReportsPoolFullyDown(t *testing.T) {
	registry := shared.NewServiceRegistry()
	pools := map[string]*upstream.PeerPool{"api": buildPool(t, "api", true, true)}
	svc := NewPrometheusService(":0", registry, pools)

	rec := httptest.NewRecorder()
	svc.healthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "pool api: ERROR all peers down (2/2 peers down)")
}

func TestService_HealthzPartiallyDownStillHealthy(t *testing.T) {
	registry := shared.NewServiceRegistry()
	pools := map[string]*upstream.PeerPool{"api": buildPool(t, "api", true, false)}
	svc := NewPrometheusService(":0", registry, pools)

	rec := httptest.NewRecorder()
	svc.healthzHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pool api: OK (1/2 peers down)")
}
