package proxy

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/coolproxy/coolproxy/upstream"
)

// Server is a minimal HTTP reverse proxy that dials upstream peers through a
// Connector, demonstrating the get/free contract end to end. It is not a
// general-purpose proxy; it exists to exercise Connector and Selector
// against real TCP connections.
type Server struct {
	Connector *Connector
	proxy     *httputil.ReverseProxy
}

// NewServer returns a Server proxying to whatever peer Connector.Get
// selects for each incoming request.
func NewServer(connector *Connector) *Server {
	s := &Server{Connector: connector}
	s.proxy = &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = "http"
		},
		Transport: &peerTransport{connector: connector},
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.proxy.ServeHTTP(w, r)
}

// peerTransport is an http.RoundTripper that picks a peer via Connector for
// every request instead of dialing a fixed address, so each proxied request
// independently exercises a full Selector attempt.
type peerTransport struct {
	connector *Connector
}

func (t *peerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	conn, err := t.connector.Get(req.Context())
	if err != nil {
		return nil, err
	}

	req.URL.Host = conn.Peer.Addr.String()
	req.Host = conn.Peer.Addr.String()

	if err := conn.Conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		t.connector.Free(conn, upstream.Failed)
		return nil, err
	}

	if err := req.Write(conn.Conn); err != nil {
		t.connector.Free(conn, upstream.Failed)
		return nil, err
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn.Conn), req)
	if err != nil {
		t.connector.Free(conn, upstream.Failed)
		return nil, err
	}

	// The connection can't be closed until the body is fully read, so
	// Free happens from the body's Close rather than here.
	resp.Body = &releasingBody{ReadCloser: resp.Body, connector: t.connector, conn: conn}
	return resp, nil
}

// releasingBody defers Connector.Free until the response body is closed,
// since the underlying connection must stay open while the caller reads it.
type releasingBody struct {
	io.ReadCloser
	connector *Connector
	conn      *Conn
	freed     bool
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	if !b.freed {
		b.freed = true
		outcome := upstream.Ok
		if err != nil {
			outcome = upstream.Failed
		}
		b.connector.Free(b.conn, outcome)
	}
	return err
}
