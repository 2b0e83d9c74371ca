// Package bind streams atoms to websocket clients.
//
// Handler serves a read-only atom: every client receives the current
// value on connect and every later value, as JSON frames
//
//	{"time": 1, "value": ...}
//
// where time counts the frames sent on the connection. A slow client is
// sent the latest value only; intermediate values are skipped.
//
// WritableHandler additionally accepts frames {"value": ...} from the
// client and sets them on the atom.
//
// Dial connects to such an endpoint from Go.
package bind
