package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one upstream socket connection.
type Conn interface {
	WriteFrame(ctx context.Context, f Frame) error
	ReadFrame() (Frame, error)
	Close() error
}

// Dialer opens upstream connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// WSDialer dials the remote API's WebSocket endpoint.
type WSDialer struct {
	URL    string
	Token  string
	Dialer *websocket.Dialer
}

func (d *WSDialer) Dial(ctx context.Context) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	if d.Token != "" {
		header.Set("Authorization", "Bearer "+d.Token)
	}
	c, resp, err := dialer.DialContext(ctx, d.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsConn{c: c}, nil
}

const writeTimeout = 10 * time.Second

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex // gorilla allows one concurrent writer
}

func (w *wsConn) WriteFrame(ctx context.Context, f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := w.c.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return w.c.WriteJSON(f)
}

func (w *wsConn) ReadFrame() (Frame, error) {
	var f Frame
	err := w.c.ReadJSON(&f)
	return f, err
}

func (w *wsConn) Close() error {
	w.mu.Lock()
	_ = w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	w.mu.Unlock()
	return w.c.Close()
}
