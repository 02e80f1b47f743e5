package notification

import (
	"context"
	"fmt"
	"sort"

	"servicehub/models"

	"firebase.google.com/go/v4/messaging"
)

// Pusher delivers one notification to one device token.
type Pusher interface {
	Push(ctx context.Context, token string, role models.Role, n models.Notification) error
}

// Sender is the part of *messaging.Client the FCM pusher uses.
type Sender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// FCMPusher sends pushes through Firebase Cloud Messaging.
type FCMPusher struct {
	client Sender
}

func NewFCMPusher(client Sender) (*FCMPusher, error) {
	if client == nil {
		return nil, fmt.Errorf("notification pusher initialization error: FCM client is nil")
	}
	return &FCMPusher{client: client}, nil
}

func (p *FCMPusher) Push(ctx context.Context, token string, role models.Role, n models.Notification) error {
	if token == "" {
		return fmt.Errorf("Push: empty FCM token for notification %s", n.ID)
	}
	if _, err := p.client.Send(ctx, buildMessage(token, role, n)); err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("Push: %w: %v", ErrStaleToken, err)
		}
		return fmt.Errorf("Push: failed to send FCM message: %w", err)
	}
	return nil
}

func buildMessage(token string, role models.Role, n models.Notification) *messaging.Message {
	data := stringData(n.Data)
	data["notificationId"] = n.ID
	data["type"] = n.Type
	if role != "" {
		data["role"] = string(role)
	}

	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}

// stringData flattens notification data; FCM only carries string values.
func stringData(in map[string]any) map[string]string {
	out := make(map[string]string, len(in)+3)
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := in[k].(type) {
		case nil:
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
