package policy

import "errors"

var (
	// ErrInvalidSchedule is returned when a slot's date or start time cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid booking schedule")

	ErrSameDayCancellation      = errors.New("bookings scheduled for today cannot be cancelled")
	ErrCancellationWindowClosed = errors.New("bookings less than 2 hours away cannot be cancelled")
	ErrReasonRequired           = errors.New("a cancellation reason is required")
)
