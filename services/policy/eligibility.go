package policy

import (
	"strings"
	"time"
)

// TechnicianCancelMinHours is the minimum notice a technician must give.
const TechnicianCancelMinHours = 2.0

// CancelEligibility is the technician-side answer rendered next to a booking.
type CancelEligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// TechnicianCanCancel checks the schedule rules only; the reason is checked on submit.
func TechnicianCanCancel(scheduled, now time.Time) error {
	if SameDay(scheduled, now) {
		return ErrSameDayCancellation
	}
	if HoursUntil(scheduled, now) < TechnicianCancelMinHours {
		return ErrCancellationWindowClosed
	}
	return nil
}

// CheckTechnicianCancel validates a technician's cancellation request.
func CheckTechnicianCancel(scheduled, now time.Time, reason string) error {
	if err := TechnicianCanCancel(scheduled, now); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// EligibilityFor renders the result of TechnicianCanCancel.
func EligibilityFor(scheduled, now time.Time) CancelEligibility {
	if err := TechnicianCanCancel(scheduled, now); err != nil {
		return CancelEligibility{Allowed: false, Reason: err.Error()}
	}
	return CancelEligibility{Allowed: true}
}
