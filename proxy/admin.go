package proxy

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coolproxy/coolproxy/upstream"
	"github.com/dustin/go-humanize"
	"github.com/emicklei/dot"
	"github.com/gorilla/mux"
	"github.com/paulbellamy/ratecounter"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prom2json"
	"github.com/r3labs/sse"
	"github.com/rs/cors"
)

// Admin serves operator-facing introspection for one or more pools: a JSON
// status dump, a live event stream, and a topology graph. It mirrors the
// /metrics,/healthz mux-of-handlers idiom used elsewhere in this codebase,
// generalized to the richer views a peer pool needs.
type Admin struct {
	pools      map[string]*upstream.PeerPool
	router     *mux.Router
	sse        *sse.Server
	rate       *ratecounter.RateCounter
	metricsURL string
}

// NewAdmin returns an Admin serving the given named pools. metricsURL, if
// non-empty, is the local "/metrics" endpoint (e.g.
// "http://127.0.0.1:2112/metrics") that GET /status.json re-renders as
// JSON; pass "" to disable that route when monitoring is off.
func NewAdmin(pools map[string]*upstream.PeerPool, metricsURL string) *Admin {
	a := &Admin{
		pools:      pools,
		sse:        sse.New(),
		rate:       ratecounter.NewRateCounter(time.Minute),
		metricsURL: metricsURL,
	}
	for name := range pools {
		a.sse.CreateStream(name)
	}

	r := mux.NewRouter()
	r.HandleFunc("/pools", a.statusHandler).Methods(http.MethodGet)
	r.HandleFunc("/pools/{name}", a.poolStatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/pools/{name}/graph", a.poolGraphHandler).Methods(http.MethodGet)
	r.HandleFunc("/pools/{name}/events", a.poolEventsHandler).Methods(http.MethodGet)
	r.HandleFunc("/status.json", a.statusJSONHandler).Methods(http.MethodGet)
	a.router = r

	return a
}

// Handler returns the Admin's http.Handler, with permissive CORS applied so
// a browser-based dashboard on a different origin can poll it.
func (a *Admin) Handler() http.Handler {
	return cors.Default().Handler(a.router)
}

// Publish implements EventSink: every Connector event is both counted
// toward the request rate and forwarded to the named pool's SSE stream.
func (a *Admin) Publish(ev Event) {
	a.rate.Incr(1)

	payload, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Warn("marshaling admin event")
		return
	}
	a.sse.Publish(ev.Pool, &sse.Event{
		Event: []byte(ev.Kind),
		Data:  payload,
	})
}

type poolStatus struct {
	Name           string       `json:"name"`
	RequestsPerMin int64        `json:"requests_per_min"`
	Peers          []peerStatus `json:"peers"`
}

type peerStatus struct {
	Name            string `json:"name"`
	Weight          int    `json:"weight"`
	EffectiveWeight int    `json:"effective_weight"`
	CurrentWeight   int    `json:"current_weight"`
	Fails           int    `json:"fails"`
	MaxFails        int    `json:"max_fails"`
	Down            bool   `json:"down"`
	Accessed        string `json:"accessed"`
}

func (a *Admin) buildPoolStatus(name string, pool *upstream.PeerPool) poolStatus {
	snap := pool.Snapshot()
	peers := make([]peerStatus, len(snap))
	for i, p := range snap {
		accessed := "never"
		if !p.Accessed.IsZero() {
			accessed = humanize.Time(p.Accessed)
		}
		peers[i] = peerStatus{
			Name:            p.Name,
			Weight:          p.Weight,
			EffectiveWeight: p.EffectiveWeight,
			CurrentWeight:   p.CurrentWeight,
			Fails:           p.Fails,
			MaxFails:        p.MaxFails,
			Down:            p.Down,
			Accessed:        accessed,
		}
	}
	return poolStatus{
		Name:           name,
		RequestsPerMin: a.rate.Rate(),
		Peers:          peers,
	}
}

// statusHandler serves GET /pools: every pool this Admin was built with.
func (a *Admin) statusHandler(w http.ResponseWriter, r *http.Request) {
	out := make([]poolStatus, 0, len(a.pools))
	for name, pool := range a.pools {
		out = append(out, a.buildPoolStatus(name, pool))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.WithError(err).Error("encoding admin status")
	}
}

// poolStatusHandler serves GET /pools/{name}.
func (a *Admin) poolStatusHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	pool, ok := a.pools[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.buildPoolStatus(name, pool)); err != nil {
		log.WithError(err).Error("encoding admin pool status")
	}
}

// poolGraphHandler serves GET /pools/{name}/graph: a Graphviz dot rendering
// of name's primary tier and, transitively, its backup tier.
func (a *Admin) poolGraphHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	pool, ok := a.pools[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	g := dot.NewGraph(dot.Directed)
	renderPool(g, name, pool, map[string]bool{})

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	if _, err := w.Write([]byte(g.String())); err != nil {
		log.WithError(err).Error("writing topology graph")
	}
}

// poolEventsHandler serves GET /pools/{name}/events: a Server-Sent-Events
// stream of selection/failure occurrences for that pool, proxied to the
// underlying stream r3labs/sse addresses by its "stream" query parameter.
func (a *Admin) poolEventsHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := a.pools[name]; !ok {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	q.Set("stream", name)
	r.URL.RawQuery = q.Encode()
	a.sse.HTTPHandler(w, r)
}

func renderPool(g *dot.Graph, name string, pool *upstream.PeerPool, seen map[string]bool) (dot.Node, bool) {
	if seen[name] {
		return dot.Node{}, false
	}
	seen[name] = true

	cluster := g.Subgraph(name, dot.ClusterOption())
	root := cluster.Node(name)

	for _, snap := range pool.Snapshot() {
		peerNode := cluster.Node(name + "/" + snap.Name).Label(snap.Name)
		root.Edge(peerNode)
	}

	if pool.Next != nil {
		if backupRoot, ok := renderPool(g, pool.Next.Name, pool.Next, seen); ok {
			root.Edge(backupRoot, "failover")
		}
	}

	return root, true
}

// statusJSONHandler serves GET /status.json: the process's own /metrics
// output re-rendered as prom2json family JSON, for admin tooling that wants
// metric families as structured data rather than scraping text/plain.
func (a *Admin) statusJSONHandler(w http.ResponseWriter, r *http.Request) {
	if a.metricsURL == "" {
		http.Error(w, "monitoring disabled", http.StatusServiceUnavailable)
		return
	}

	families, err := fetchPrometheusJSON(a.metricsURL)
	if err != nil {
		log.WithError(err).Error("fetching prometheus families for /status.json")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(families); err != nil {
		log.WithError(err).Error("encoding /status.json")
	}
}

// fetchPrometheusJSON converts the process's own /metrics output into the
// prom2json family shape, for admin tooling that wants metric families as
// JSON rather than scraping text/plain.
func fetchPrometheusJSON(metricsURL string) ([]*prom2json.Family, error) {
	mfChan := make(chan *dto.MetricFamily)
	result := make([]*prom2json.Family, 0)
	done := make(chan struct{})
	go func() {
		for mf := range mfChan {
			result = append(result, prom2json.NewFamily(mf))
		}
		close(done)
	}()

	if err := prom2json.FetchMetricFamilies(metricsURL, mfChan, nil); err != nil {
		return nil, err
	}
	<-done
	return result, nil
}
