package tasks

import (
	"encoding/json"
	"fmt"

	"servicehub/models"

	"github.com/hibiken/asynq"
)

const (
	TypePushSend = "notification:push"
	PushQueue    = "default"
	pushMaxRetry = 5
)

// PushPayload is one notification addressed to one device.
type PushPayload struct {
	UserID       string              `json:"userId"`
	Role         models.Role         `json:"role,omitempty"`
	Token        string              `json:"token"`
	Notification models.Notification `json:"notification"`
}

func NewPushTask(payload PushPayload) (*asynq.Task, []asynq.Option, error) {
	if payload.Token == "" {
		return nil, nil, fmt.Errorf("push task for %s: empty token", payload.UserID)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypePushSend, b)
	opts := []asynq.Option{asynq.Queue(PushQueue), asynq.MaxRetry(pushMaxRetry)}

	return task, opts, nil
}

func ParsePushPayload(task *asynq.Task) (PushPayload, error) {
	var p PushPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return PushPayload{}, fmt.Errorf("invalid push payload: %w", err)
	}
	return p, nil
}
