package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// Session is what the gateway needs from a checkout session.
type Session struct {
	ID            string
	Paid          bool
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	BookingID     string
}

// SessionLookup finds a checkout session by id.
type SessionLookup interface {
	Lookup(ctx context.Context, id string) (Session, error)
}

// StripeLookup reads checkout sessions from Stripe.
type StripeLookup struct {
	client *session.Client
}

func NewStripeLookup(key string) *StripeLookup {
	return &StripeLookup{client: &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: key}}
}

func (s *StripeLookup) Lookup(ctx context.Context, id string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := s.client.Get(id, params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe checkout session %s: %w", id, err)
	}
	return fromStripe(cs), nil
}

func fromStripe(cs *stripe.CheckoutSession) Session {
	out := Session{
		ID:            cs.ID,
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		BookingID:     cs.ClientReferenceID,
	}
	if id := cs.Metadata["bookingId"]; id != "" {
		out.BookingID = id
	}
	switch cs.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		out.Paid = true
	}
	return out
}
