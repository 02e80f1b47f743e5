package payment

import (
	"context"
	"fmt"
	"strings"

	"servicehub/models"
	"servicehub/services/api"

	"go.uber.org/zap"
)

// Service starts checkouts and verifies their outcome.
type Service struct {
	lookup SessionLookup
	logger *zap.Logger
}

// NewService builds the payment service. A nil lookup leaves verification
// entirely to the remote API.
func NewService(lookup SessionLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lookup: lookup, logger: logger}
}

// StartCheckout returns the URL the browser is redirected to.
func (s *Service) StartCheckout(ctx context.Context, c *api.Client, bookingID string) (string, error) {
	if strings.TrimSpace(bookingID) == "" {
		return "", ErrMissingBookingID
	}
	return c.CreateCheckout(ctx, bookingID)
}

// Verify confirms a returning checkout. Unpaid sessions never reach the remote API.
func (s *Service) Verify(ctx context.Context, c *api.Client, sessionID string) (models.Booking, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.Booking{}, ErrMissingSessionID
	}

	if s.lookup != nil {
		sess, err := s.lookup.Lookup(ctx, sessionID)
		if err != nil {
			return models.Booking{}, err
		}
		if !sess.Paid {
			s.logger.Info("Refusing to verify unpaid checkout",
				zap.String("sessionId", sessionID), zap.String("paymentStatus", sess.PaymentStatus))
			return models.Booking{}, fmt.Errorf("%w: status %q", ErrUnpaidSession, sess.PaymentStatus)
		}
	}

	booking, err := c.VerifyPayment(ctx, sessionID)
	if err != nil {
		return models.Booking{}, err
	}
	s.logger.Info("Payment verified", zap.String("sessionId", sessionID), zap.String("bookingId", booking.ID))
	return booking, nil
}
