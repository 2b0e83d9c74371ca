package bind

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	atomerrors "github.com/vango-dev/atomrx/internal/errors"
)

// Client is a connection to a binding endpoint.
type Client[T any] struct {
	conn *websocket.Conn
}

// Dial connects to a binding endpoint at url (ws:// or wss://).
func Dial[T any](ctx context.Context, url string, header http.Header) (*Client[T], error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, atomerrors.New(atomerrors.CodeBindUpgrade).WithSubject(url).Wrap(err)
	}
	return &Client[T]{conn: conn}, nil
}

// Next blocks until the next frame arrives.
func (c *Client[T]) Next() (Frame[T], error) {
	var f Frame[T]
	if err := c.conn.ReadJSON(&f); err != nil {
		return Frame[T]{}, err
	}
	return f, nil
}

// SetReadDeadline bounds the next calls to Next. A zero t clears it.
func (c *Client[T]) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Send asks the server to set the atom to v. Read-only endpoints ignore it.
func (c *Client[T]) Send(v T) error {
	if err := c.conn.WriteJSON(clientFrame[T]{Value: &v}); err != nil {
		return atomerrors.New(atomerrors.CodeBindWrite).Wrap(err)
	}
	return nil
}

// Close sends a close frame and closes the connection.
func (c *Client[T]) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
	return c.conn.Close()
}
