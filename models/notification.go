package models

import "time"

type Notification struct {
	ID        string         `json:"_id"`
	Recipient string         `json:"recipient"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Device is an FCM registration token a user registered with the gateway.
type Device struct {
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
	FCMToken string `json:"fcmToken" binding:"required"`
}
