package models

import "time"

// ChatMessage is a message exchanged inside a booking's chat room.
type ChatMessage struct {
	ID         string    `json:"_id,omitempty"`
	ClientID   string    `json:"clientId,omitempty"` // gateway-generated id for de-duplication on the UI
	BookingID  string    `json:"bookingId"`
	Sender     string    `json:"sender"`
	SenderRole Role      `json:"senderRole"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}
