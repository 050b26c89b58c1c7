package proxy

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/coolproxy/coolproxy/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/prom2json"
	"github.com/stretchr/testify/require"
)

func testPool() *upstream.PeerPool {
	return &upstream.PeerPool{
		Name: "api",
		Peers: []*upstream.Peer{
			{Name: "a", Weight: 3, EffectiveWeight: 3, MaxFails: 1},
			{Name: "b", Weight: 1, EffectiveWeight: 1, Down: true},
		},
	}
}

func TestAdmin_StatusJSON(t *testing.T) {
	admin := NewAdmin(map[string]*upstream.PeerPool{"api": testPool()}, "")

	req := httptest.NewRequest("GET", "/pools", nil)
	rec := httptest.NewRecorder()
	admin.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)

	var out []poolStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "api", out[0].Name)
	require.Len(t, out[0].Peers, 2)
}

func TestAdmin_PoolStatusJSON_UnknownPool(t *testing.T) {
	admin := NewAdmin(map[string]*upstream.PeerPool{"api": testPool()}, "")

	req := httptest.NewRequest("GET", "/pools/nope", nil)
	rec := httptest.NewRecorder()
	admin.Handler().ServeHTTP(rec, req)

	require.Equal(t, 404, rec.Code)
}

func TestAdmin_TopologyDot(t *testing.T) {
	pool := testPool()
	backup := &upstream.PeerPool{Name: "api-backup", Peers: []*upstream.Peer{{Name: "c", Weight: 1, EffectiveWeight: 1}}}
	pool.Next = backup

	admin := NewAdmin(map[string]*upstream.PeerPool{"api": pool}, "")

	req := httptest.NewRequest("GET", "/pools/api/graph", nil)
	rec := httptest.NewRecorder()
	admin.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "digraph")
}

func TestAdmin_PublishUpdatesRate(t *testing.T) {
	admin := NewAdmin(map[string]*upstream.PeerPool{"api": testPool()}, "")
	admin.Publish(Event{Pool: "api", Peer: "a", Kind: "selected"})
	require.Equal(t, int64(1), admin.rate.Rate())
}

func TestAdmin_StatusJSONDisabledWhenNoMetricsURL(t *testing.T) {
	admin := NewAdmin(map[string]*upstream.PeerPool{"api": testPool()}, "")

	req := httptest.NewRequest("GET", "/status.json", nil)
	rec := httptest.NewRecorder()
	admin.Handler().ServeHTTP(rec, req)

	require.Equal(t, 503, rec.Code)
}

func TestAdmin_StatusJSONRendersMetricFamilies(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "coolproxy_test_total", Help: "test counter"})
	counter.Inc()
	registry.MustRegister(counter)

	metricsSrv := httptest.NewServer(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	defer metricsSrv.Close()

	admin := NewAdmin(map[string]*upstream.PeerPool{"api": testPool()}, metricsSrv.URL)

	req := httptest.NewRequest("GET", "/status.json", nil)
	rec := httptest.NewRecorder()
	admin.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)

	var families []*prom2json.Family
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &families))

	var found bool
	for _, f := range families {
		if f.Name == "coolproxy_test_total" {
			found = true
		}
	}
	require.True(t, found, "expected coolproxy_test_total family in /status.json output")
}
