package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"servicehub/models"
)

const defaultBufferSize = 32

// Manager owns the single upstream socket and the room subscriptions layered on it.
// The connection is dialled by the first subscription and closed when the last
// subscription goes away.
type Manager struct {
	dialer  Dialer
	logger  *zap.Logger
	bufSize int

	mu      sync.Mutex
	conn    Conn
	rooms   map[Room]map[*Subscription]struct{}
	total   int
	closed  bool
	dropped uint64
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithBufferSize sets the per-subscriber event buffer.
func WithBufferSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.bufSize = n
		}
	}
}

func NewManager(d Dialer, opts ...Option) *Manager {
	m := &Manager{
		dialer:  d,
		logger:  zap.NewNop(),
		bufSize: defaultBufferSize,
		rooms:   make(map[Room]map[*Subscription]struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Subscription receives the events of one room. Events is closed when the
// subscription ends, either by Close or because the upstream connection dropped.
type Subscription struct {
	m        *Manager
	room     Room
	ch       chan Event
	detached bool
}

func (s *Subscription) Room() Room           { return s.room }
func (s *Subscription) Events() <-chan Event { return s.ch }
func (s *Subscription) Close()               { s.m.unsubscribe(s) }

// Subscribe joins room, dialling upstream if no connection is open.
func (m *Manager) Subscribe(ctx context.Context, room Room) (*Subscription, error) {
	if room.ID == "" {
		return nil, fmt.Errorf("subscribe %s: empty room id", room.Kind)
	}

	if err := m.lockConn(ctx); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()

	subs, ok := m.rooms[room]
	if !ok {
		join, err := room.joinFrame()
		if err == nil {
			err = m.conn.WriteFrame(ctx, join)
		}
		if err != nil {
			if m.total == 0 {
				m.closeConnLocked()
			}
			return nil, fmt.Errorf("join %s room %s: %w", room.Kind, room.ID, err)
		}
		subs = make(map[*Subscription]struct{})
		m.rooms[room] = subs
	}

	sub := &Subscription{m: m, room: room, ch: make(chan Event, m.bufSize)}
	subs[sub] = struct{}{}
	m.total++
	return sub, nil
}

// lockConn returns with m.mu held and m.conn open. The dial runs unlocked so a
// slow upstream does not stall Stats or dispatch.
func (m *Manager) lockConn(ctx context.Context) error {
	m.mu.Lock()
	for {
		if m.closed {
			m.mu.Unlock()
			return ErrManagerClosed
		}
		if m.conn != nil {
			return nil
		}
		m.mu.Unlock()
		conn, err := m.dialer.Dial(ctx)
		if err != nil {
			return fmt.Errorf("dial upstream socket: %w", err)
		}
		m.mu.Lock()
		if m.closed || m.conn != nil {
			// lost the race to a concurrent dial or to Close
			if err := conn.Close(); err != nil {
				m.logger.Debug("Closing surplus upstream socket", zap.Error(err))
			}
			continue
		}
		m.conn = conn
		m.logger.Info("Upstream socket connected")
		go m.readLoop(conn)
		return nil
	}
}

func (m *Manager) unsubscribe(s *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.detached {
		return
	}
	s.detached = true
	close(s.ch)
	m.total--

	subs := m.rooms[s.room]
	delete(subs, s)
	if len(subs) == 0 {
		delete(m.rooms, s.room)
		if m.conn != nil {
			if leave, err := s.room.leaveFrame(); err == nil {
				if err := m.conn.WriteFrame(context.Background(), leave); err != nil {
					m.logger.Warn("Failed to leave room", zap.String("room", s.room.ID), zap.Error(err))
				}
			}
		}
	}
	if m.total == 0 {
		m.closeConnLocked()
	}
}

// Send emits a chat message. Without an open connection a transient one is used.
// The transient dial runs unlocked.
func (m *Manager) Send(ctx context.Context, msg models.ChatMessage) error {
	if strings.TrimSpace(msg.Message) == "" {
		return ErrEmptyMessage
	}
	if msg.BookingID == "" {
		return fmt.Errorf("send message: empty booking id")
	}
	frame, err := newFrame(EventSendMessage, msg)
	if err != nil {
		return err
	}

	room := ChatRoom(msg.BookingID)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.conn != nil {
		defer m.mu.Unlock()
		return m.sendSharedLocked(ctx, room, frame)
	}
	m.mu.Unlock()

	conn, err := m.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial upstream socket: %w", err)
	}
	defer conn.Close()
	join, _ := room.joinFrame()
	if err := conn.WriteFrame(ctx, join); err != nil {
		return err
	}
	return conn.WriteFrame(ctx, frame)
}

// sendSharedLocked writes frame on the shared connection. When no subscriber
// holds the room the connection joins it for the single message and leaves again.
func (m *Manager) sendSharedLocked(ctx context.Context, room Room, frame Frame) error {
	if _, joined := m.rooms[room]; joined {
		return m.conn.WriteFrame(ctx, frame)
	}
	join, _ := room.joinFrame()
	if err := m.conn.WriteFrame(ctx, join); err != nil {
		return fmt.Errorf("join %s room %s: %w", room.Kind, room.ID, err)
	}
	if err := m.conn.WriteFrame(ctx, frame); err != nil {
		return err
	}
	leave, _ := room.leaveFrame()
	if err := m.conn.WriteFrame(ctx, leave); err != nil {
		m.logger.Warn("Failed to leave room", zap.String("room", room.ID), zap.Error(err))
	}
	return nil
}

func (m *Manager) readLoop(conn Conn) {
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			m.dropConn(conn, err)
			return
		}
		ev, ok := decodeEvent(f)
		if !ok {
			continue
		}
		m.dispatch(ev)
	}
}

func (m *Manager) dispatch(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.rooms[ev.Room] {
		select {
		case sub.ch <- ev:
		default:
			m.dropped++
			m.logger.Warn("Subscriber buffer full, dropping event",
				zap.String("event", ev.Name), zap.String("room", ev.Room.ID))
		}
	}
}

// dropConn ends every subscription when the connection it was reading fails.
// Subscribers resubscribe, which redials.
func (m *Manager) dropConn(conn Conn, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != conn {
		return
	}
	m.logger.Warn("Upstream socket disconnected", zap.Error(err))
	m.detachAllLocked()
	m.closeConnLocked()
}

func (m *Manager) detachAllLocked() {
	for room, subs := range m.rooms {
		for sub := range subs {
			sub.detached = true
			close(sub.ch)
		}
		delete(m.rooms, room)
	}
	m.total = 0
}

func (m *Manager) closeConnLocked() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil {
		m.logger.Debug("Closing upstream socket", zap.Error(err))
	}
	m.conn = nil
}

// Stats is a point-in-time view of the manager.
type Stats struct {
	Connected     bool   `json:"connected"`
	Rooms         int    `json:"rooms"`
	Subscribers   int    `json:"subscribers"`
	DroppedEvents uint64 `json:"droppedEvents"`
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Connected:     m.conn != nil,
		Rooms:         len(m.rooms),
		Subscribers:   m.total,
		DroppedEvents: m.dropped,
	}
}

// Close ends all subscriptions and the connection. Further calls fail with ErrManagerClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.detachAllLocked()
	m.closeConnLocked()
}
