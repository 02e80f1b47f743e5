package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"servicehub/models"
)

// ListBookings fetches one page of the caller's bookings (all bookings for admins).
func (c *Client) ListBookings(ctx context.Context, q ListQuery) (models.Page[models.Booking], error) {
	return List[models.Booking](ctx, c, Bookings, q)
}

// GetBooking fetches one booking.
func (c *Client) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	return Get[models.Booking](ctx, c, Bookings, id)
}

func (c *Client) bookingAction(ctx context.Context, id, action string, body any) (models.Booking, error) {
	return write[models.Booking](ctx, c, http.MethodPost, c.Path(Bookings.Path, url.PathEscape(id), action), Bookings.ItemKey, body)
}

// CancelBooking asks the server to cancel with the given reason.
func (c *Client) CancelBooking(ctx context.Context, id, reason string) (models.Booking, error) {
	return c.bookingAction(ctx, id, "cancel", map[string]string{"reason": reason})
}

// StartBooking moves a booked job to In Progress (technician).
func (c *Client) StartBooking(ctx context.Context, id string) (models.Booking, error) {
	return c.bookingAction(ctx, id, "start", nil)
}

// CompleteBooking completes a job with the OTP the customer received (technician).
func (c *Client) CompleteBooking(ctx context.Context, id, otp string) (models.Booking, error) {
	return c.bookingAction(ctx, id, "complete", map[string]string{"otp": otp})
}

// ProposeParts submits replacement parts for customer approval (technician).
func (c *Client) ProposeParts(ctx context.Context, id string, parts []models.PartSelection) (models.Booking, error) {
	return c.bookingAction(ctx, id, "parts", map[string]any{"parts": parts})
}

// DecideParts approves or rejects the proposed parts (user).
func (c *Client) DecideParts(ctx context.Context, id string, approved bool) (models.Booking, error) {
	return c.bookingAction(ctx, id, "parts/decision", map[string]bool{"approved": approved})
}

// RateBooking submits the one-time rating of a completed booking (user).
func (c *Client) RateBooking(ctx context.Context, id string, rating int, review string) (models.Booking, error) {
	return c.bookingAction(ctx, id, "rate", map[string]any{"rating": rating, "review": review})
}

// CreateCheckout asks the server for a payment gateway checkout URL for a booking.
func (c *Client) CreateCheckout(ctx context.Context, id string) (string, error) {
	var out struct {
		URL         string `json:"url"`
		CheckoutURL string `json:"checkoutUrl"`
	}
	path := c.Path(Bookings.Path, url.PathEscape(id), "checkout")
	if err := c.Do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		out.URL = out.CheckoutURL
	}
	if out.URL == "" {
		return "", &Error{Kind: KindDecode, Op: "POST " + path, Message: "checkout URL missing from response"}
	}
	return out.URL, nil
}

// VerifyPayment asks the server to verify a returned checkout session.
func (c *Client) VerifyPayment(ctx context.Context, sessionID string) (models.Booking, error) {
	return write[models.Booking](ctx, c, http.MethodPost, c.Path("payments", "verify"), Bookings.ItemKey,
		map[string]string{"sessionId": sessionID})
}

// Wallet fetches the balance and one page of transactions.
func (c *Client) Wallet(ctx context.Context, q ListQuery) (models.Wallet, error) {
	var raw json.RawMessage
	path := c.Path("wallet")
	if err := c.Do(ctx, http.MethodGet, path, q.values(c.pageSize), nil, &raw); err != nil {
		return models.Wallet{}, err
	}
	var head struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return models.Wallet{}, &Error{Kind: KindDecode, Op: "GET " + path, Message: "unexpected wallet shape", Err: err}
	}
	txs, err := decodePage[models.WalletTransaction](raw, "transactions")
	if err != nil {
		return models.Wallet{}, &Error{Kind: KindDecode, Op: "GET " + path, Message: "unexpected wallet shape", Err: err}
	}
	return models.Wallet{Balance: head.Balance, Transactions: txs}, nil
}

// ChatHistory fetches the stored messages of a booking's chat.
func (c *Client) ChatHistory(ctx context.Context, bookingID string) ([]models.ChatMessage, error) {
	var raw json.RawMessage
	path := c.Path("chats", url.PathEscape(bookingID))
	if err := c.Do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	page, err := decodePage[models.ChatMessage](raw, "messages")
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: "GET " + path, Message: "unexpected chat shape", Err: err}
	}
	return page.Data, nil
}
