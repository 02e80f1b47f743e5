package realtime

import (
	"encoding/json"

	"servicehub/models"
)

// Upstream event names.
const (
	EventJoinChat           = "join_chat"
	EventLeaveChat          = "leave_chat"
	EventSendMessage        = "send_message"
	EventNewMessage         = "new_message"
	EventAuthenticate       = "authenticate"
	EventLeaveNotifications = "leave_notifications"
	EventNotification       = "notification"
)

// Frame is one message on the upstream socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newFrame(event string, data any) (Frame, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: b}, nil
}

type RoomKind string

const (
	RoomChat          RoomKind = "chat"
	RoomNotifications RoomKind = "notifications"
)

// Room is a subscription target: a booking's chat or a user's notifications.
type Room struct {
	Kind RoomKind
	ID   string
}

func ChatRoom(bookingID string) Room      { return Room{Kind: RoomChat, ID: bookingID} }
func NotificationRoom(userID string) Room { return Room{Kind: RoomNotifications, ID: userID} }

func (r Room) joinFrame() (Frame, error) {
	if r.Kind == RoomChat {
		return newFrame(EventJoinChat, map[string]string{"bookingId": r.ID})
	}
	return newFrame(EventAuthenticate, map[string]string{"userId": r.ID})
}

func (r Room) leaveFrame() (Frame, error) {
	if r.Kind == RoomChat {
		return newFrame(EventLeaveChat, map[string]string{"bookingId": r.ID})
	}
	return newFrame(EventLeaveNotifications, map[string]string{"userId": r.ID})
}

// Event is what subscribers receive.
type Event struct {
	Name         string               `json:"event"`
	Room         Room                 `json:"-"`
	Message      *models.ChatMessage  `json:"message,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// decodeEvent maps an upstream frame onto the room it belongs to.
func decodeEvent(f Frame) (Event, bool) {
	switch f.Event {
	case EventNewMessage:
		var msg models.ChatMessage
		if json.Unmarshal(f.Data, &msg) != nil || msg.BookingID == "" {
			return Event{}, false
		}
		return Event{Name: f.Event, Room: ChatRoom(msg.BookingID), Message: &msg}, true
	case EventNotification:
		var n models.Notification
		if json.Unmarshal(f.Data, &n) != nil || n.Recipient == "" {
			return Event{}, false
		}
		return Event{Name: f.Event, Room: NotificationRoom(n.Recipient), Notification: &n}, true
	}
	return Event{}, false
}
