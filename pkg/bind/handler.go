package bind

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	atomerrors "github.com/vango-dev/atomrx/internal/errors"
	"github.com/vango-dev/atomrx/pkg/atom"
)

// Frame is a value sent to clients.
type Frame[T any] struct {
	Time  uint64 `json:"time"`
	Value T      `json:"value"`
}

// clientFrame is a value sent by clients.
type clientFrame[T any] struct {
	Value *T `json:"value"`
}

// errClientGone ends the pumps when the client closes the connection.
var errClientGone = errors.New("bind: client closed connection")

// Handler returns an http.Handler streaming src to websocket clients.
func Handler[T any](src atom.ReadOnly[T], opts ...Option) http.Handler {
	return newBinding(src, nil, opts)
}

// WritableHandler returns an http.Handler streaming a to websocket
// clients and applying values sent by them.
func WritableHandler[T any](a atom.Writable[T], opts ...Option) http.Handler {
	return newBinding(a.View(), a.Set, opts)
}

type binding[T any] struct {
	src      atom.ReadOnly[T]
	apply    func(T)
	config   Config
	upgrader websocket.Upgrader
}

func newBinding[T any](src atom.ReadOnly[T], apply func(T), opts []Option) *binding[T] {
	cfg := buildConfig(opts)
	return &binding[T]{
		src:    src,
		apply:  apply,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// ServeHTTP upgrades the connection and runs the pumps until either side closes.
func (b *binding[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := b.config.Logger

	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logger.Debug("websocket upgrade failed",
			"error", atomerrors.New(atomerrors.CodeBindUpgrade).WithSubject(r.URL.Path).Wrap(err),
		)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(b.config.MaxMessageSize)

	box := newMailbox[T]()
	unsub := b.src.Subscribe(box.put)
	defer unsub()

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return b.writePump(ctx, conn, box) })
	g.Go(func() error { return b.readPump(conn) })
	g.Go(func() error {
		<-ctx.Done()
		// Unblocks the read pump.
		conn.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errClientGone) {
		logger.Debug("websocket binding closed", "path", r.URL.Path, "error", err)
	}
}

// writePump sends the latest value whenever it changes.
func (b *binding[T]) writePump(ctx context.Context, conn *websocket.Conn, box *mailbox[T]) error {
	var ping <-chan time.Time
	if b.config.PingInterval > 0 {
		ticker := time.NewTicker(b.config.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ping:
			deadline := time.Now().Add(b.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return atomerrors.New(atomerrors.CodeBindWrite).Wrap(err)
			}
		case <-box.ready:
			v, ok := box.take()
			if !ok {
				continue
			}
			seq++
			conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
			if err := conn.WriteJSON(Frame[T]{Time: seq, Value: v}); err != nil {
				return atomerrors.New(atomerrors.CodeBindWrite).Wrap(err)
			}
		}
	}
}

// readPump applies client frames until the connection closes. While pings
// are enabled a client that sends neither frames nor pongs within
// ReadTimeout is dropped.
func (b *binding[T]) readPump(conn *websocket.Conn) error {
	keepalive := b.config.PingInterval > 0
	extend := func() {
		if keepalive {
			conn.SetReadDeadline(time.Now().Add(b.config.ReadTimeout))
		}
	}
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})

	for {
		extend()
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return err
			}
			return errClientGone
		}
		if b.apply == nil {
			continue
		}

		var f clientFrame[T]
		if err := json.Unmarshal(msg, &f); err != nil || f.Value == nil {
			b.config.Logger.Debug("ignoring client frame",
				"error", atomerrors.New(atomerrors.CodeBindDecode).Wrap(err),
			)
			continue
		}
		b.apply(*f.Value)
	}
}

// mailbox holds the latest undelivered value.
type mailbox[T any] struct {
	mu    sync.Mutex
	value T
	dirty bool
	ready chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{ready: make(chan struct{}, 1)}
}

func (m *mailbox[T]) put(v T) {
	m.mu.Lock()
	m.value = v
	m.dirty = true
	m.mu.Unlock()
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		var zero T
		return zero, false
	}
	m.dirty = false
	return m.value, true
}
