// Package proxy is the host layer that drives upstream.Selector against real
// network connections: it dials the peer a Selector chooses, reports the
// outcome back, and exposes the pool over HTTP for operators (status JSON,
// a live event stream, and a topology graph).
package proxy
