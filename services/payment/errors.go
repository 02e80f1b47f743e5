package payment

import "errors"

var (
	ErrMissingSessionID = errors.New("session_id is required")
	ErrMissingBookingID = errors.New("booking id is required")
	ErrUnpaidSession    = errors.New("checkout session is not paid")
)
