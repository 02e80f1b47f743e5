package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"servicehub/models"
	"servicehub/services/api"
	"servicehub/services/realtime"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedConn is an upstream socket whose inbound frames are pushed by the test.
type feedConn struct {
	in     chan realtime.Frame
	closed chan struct{}
	once   sync.Once
}

func newFeedConn() *feedConn {
	return &feedConn{in: make(chan realtime.Frame, 8), closed: make(chan struct{})}
}

func (c *feedConn) WriteFrame(context.Context, realtime.Frame) error { return nil }

func (c *feedConn) ReadFrame() (realtime.Frame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return realtime.Frame{}, io.EOF
	}
}

func (c *feedConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type feedDialer struct {
	conn  *feedConn
	dials atomic.Int32
}

func (d *feedDialer) Dial(context.Context) (realtime.Conn, error) {
	d.dials.Add(1)
	return d.conn, nil
}

func frameOf(t *testing.T, event string, data any) realtime.Frame {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return realtime.Frame{Event: event, Data: b}
}

type streamFixture struct {
	hb     *HandlerBundle
	conn   *feedConn
	dialer *feedDialer
	srv    *httptest.Server
}

func newStreamFixture(t *testing.T, bookings ...models.Booking) *streamFixture {
	t.Helper()
	_, remote := newFakeRemote(t, bookings...)
	conn := newFeedConn()
	dialer := &feedDialer{conn: conn}
	hb := newBundle(remote.URL)
	hb.Realtime = realtime.NewManager(dialer)
	t.Cleanup(hb.Realtime.Close)
	srv := httptest.NewServer(router(hb, "u1", models.RoleUser))
	t.Cleanup(srv.Close)
	return &streamFixture{hb: hb, conn: conn, dialer: dialer, srv: srv}
}

// open starts the request and returns once the handler holds a subscription.
// Headers are only flushed with the first event, so the response arrives on the channel later.
func (f *streamFixture) open(t *testing.T, ctx context.Context, path string) <-chan *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+path, nil)
	require.NoError(t, err)
	resps := make(chan *http.Response, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			close(resps)
			return
		}
		resps <- resp
	}()
	require.Eventually(t, func() bool { return f.hb.Realtime.Stats().Subscribers == 1 },
		2*time.Second, 5*time.Millisecond)
	return resps
}

func awaitResponse(t *testing.T, resps <-chan *http.Response) *http.Response {
	t.Helper()
	select {
	case resp, ok := <-resps:
		require.True(t, ok, "stream request failed")
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream headers")
		return nil
	}
}

// readEvent returns the next blank-line terminated SSE block.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	block := make(chan string, 1)
	go func() {
		var sb strings.Builder
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				block <- sb.String()
				return
			}
			if line == "\n" {
				block <- sb.String()
				return
			}
			sb.WriteString(line)
		}
	}()
	select {
	case b := <-block:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestChatStreamRelaysMessages(t *testing.T) {
	f := newStreamFixture(t, booking("b1", models.StatusBooked, "12-06-2025", "10:00 AM"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resps := f.open(t, ctx, "/api/user/chats/b1/stream")
	f.conn.in <- frameOf(t, realtime.EventNewMessage, models.ChatMessage{BookingID: "b1", Sender: "t1", Message: "on my way"})
	f.conn.in <- frameOf(t, realtime.EventNewMessage, models.ChatMessage{BookingID: "other", Message: "not for you"})
	f.conn.in <- frameOf(t, realtime.EventNewMessage, models.ChatMessage{BookingID: "b1", Message: "arrived"})

	resp := awaitResponse(t, resps)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	body := bufio.NewReader(resp.Body)
	first := readEvent(t, body)
	assert.Contains(t, first, "event:"+realtime.EventNewMessage)
	assert.Contains(t, first, `"message":"on my way"`)
	second := readEvent(t, body)
	assert.Contains(t, second, `"message":"arrived"`)
	assert.NotContains(t, second, "not for you")
}

func TestChatStreamUnknownBookingDoesNotSubscribe(t *testing.T) {
	f := newStreamFixture(t)

	w := do(f.srv.Config.Handler, http.MethodGet, "/api/user/chats/missing/stream", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int32(0), f.dialer.dials.Load())
	assert.Equal(t, realtime.Stats{}, f.hb.Realtime.Stats())
}

func TestStreamClientDisconnectReleasesSubscription(t *testing.T) {
	f := newStreamFixture(t, booking("b1", models.StatusBooked, "12-06-2025", "10:00 AM"))
	ctx, cancel := context.WithCancel(context.Background())

	resps := f.open(t, ctx, "/api/user/chats/b1/stream")
	f.conn.in <- frameOf(t, realtime.EventNewMessage, models.ChatMessage{BookingID: "b1", Message: "hi"})
	resp := awaitResponse(t, resps)
	readEvent(t, bufio.NewReader(resp.Body))

	cancel()
	require.Eventually(t, func() bool { return f.hb.Realtime.Stats().Subscribers == 0 },
		2*time.Second, 5*time.Millisecond)
	assert.False(t, f.hb.Realtime.Stats().Connected)
}

func TestNotificationStreamEndsWhenUpstreamDrops(t *testing.T) {
	f := newStreamFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resps := f.open(t, ctx, "/api/user/notifications/stream")
	f.conn.in <- frameOf(t, realtime.EventNotification, models.Notification{ID: "n1", Recipient: "u1", Title: "Booked"})
	resp := awaitResponse(t, resps)
	body := bufio.NewReader(resp.Body)

	note := readEvent(t, body)
	assert.Contains(t, note, "event:"+realtime.EventNotification)
	assert.Contains(t, note, `"title":"Booked"`)

	f.conn.Close()
	assert.Contains(t, readEvent(t, body), "event:disconnected")
	rest, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, 0, f.hb.Realtime.Stats().Subscribers)
}

func TestRespondErrorMapsTimeoutsBeforeRemoteErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"network deadline": {
			err:    &api.Error{Kind: api.KindNetwork, Op: "get booking", Err: fmt.Errorf("get booking: %w", context.DeadlineExceeded)},
			status: http.StatusGatewayTimeout,
		},
		"network cancel": {
			err:    &api.Error{Kind: api.KindNetwork, Op: "get booking", Err: context.Canceled},
			status: http.StatusGatewayTimeout,
		},
		"network refused": {
			err:    &api.Error{Kind: api.KindNetwork, Op: "get booking", Err: io.ErrUnexpectedEOF},
			status: http.StatusBadGateway,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/user/bookings/b1", nil)
			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestRemoteTimeoutReturnsGatewayTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	r := router(newBundle(slow.URL), "u1", models.RoleUser)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/user/bookings/b1", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
}
