package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/services/actions"
	"servicehub/services/realtime"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

// stream relays a room subscription to the browser as Server-Sent Events until
// the client goes away or the upstream connection drops.
func (hb *HandlerBundle) stream(c *gin.Context, room realtime.Room) {
	logger := getLogger(c)
	sub, err := hb.Realtime.Subscribe(c.Request.Context(), room)
	if err != nil {
		logger.Error("Failed to subscribe", zap.String("room", room.ID), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Realtime service unavailable", err.Error())
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-sub.Events():
			if !ok {
				c.SSEvent("disconnected", gin.H{"reason": "upstream closed"})
				return false
			}
			if ev.Message != nil {
				c.SSEvent(ev.Name, ev.Message)
			} else {
				c.SSEvent(ev.Name, ev.Notification)
			}
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.Unix())
			return true
		}
	})
}

// ChatStream streams a booking's chat. The booking lookup doubles as the access check.
func (hb *HandlerBundle) ChatStream(c *gin.Context) {
	bookingID := c.Param("bookingId")
	if _, err := hb.client(c).GetBooking(c.Request.Context(), bookingID); err != nil {
		respondError(c, err)
		return
	}
	hb.stream(c, realtime.ChatRoom(bookingID))
}

// NotificationStream streams the caller's notifications.
func (hb *HandlerBundle) NotificationStream(c *gin.Context) {
	userID, _ := middleware.CurrentUser(c)
	hb.stream(c, realtime.NotificationRoom(userID))
}

func (hb *HandlerBundle) ChatHistory(c *gin.Context) {
	msgs, err := hb.client(c).ChatHistory(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage posts into a booking's chat while chatting is open.
func (hb *HandlerBundle) SendMessage(c *gin.Context) {
	var input struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	c.AddParam("id", c.Param("bookingId"))
	v, ok := hb.loadFor(c, actions.ActionChat)
	if !ok {
		return
	}

	userID, role := middleware.CurrentUser(c)
	msg := models.ChatMessage{
		ClientID:   uuid.NewString(),
		BookingID:  v.ID,
		Sender:     userID,
		SenderRole: role,
		Message:    strings.TrimSpace(input.Message),
		CreatedAt:  hb.now().UTC(),
	}
	if err := hb.Realtime.Send(c.Request.Context(), msg); err != nil {
		if errors.Is(err, realtime.ErrEmptyMessage) {
			respondError(c, err)
			return
		}
		getLogger(c).Error("Failed to send chat message", zap.String("bookingId", v.ID), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Realtime service unavailable", err.Error())
		return
	}
	c.JSON(http.StatusAccepted, msg)
}
