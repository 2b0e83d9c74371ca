// Package inspector serves a JSON document held in an atom over HTTP.
//
// Routes:
//
//	GET  /healthz        liveness probe
//	GET  /state          whole document
//	GET  /state/a/b      value at key path a.b
//	PUT  /state/a/b      replace the value at a.b
//	GET  /watch/a/b      websocket stream of a.b (see package bind)
//	GET  /metrics        Prometheus metrics, when a registry is configured
//
// Key paths address object members only. Writes go through a lensed atom
// per path, so watchers of a path are notified only when its value
// changes.
package inspector
