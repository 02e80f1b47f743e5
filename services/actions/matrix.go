// Package actions decides which booking actions each role may trigger.
// The rules only read server-supplied state; transitions stay server-side.
package actions

import (
	"time"

	"servicehub/models"
	"servicehub/services/policy"
)

type Action string

const (
	ActionDetails     Action = "details"
	ActionChat        Action = "chat"
	ActionPay         Action = "pay"
	ActionCancel      Action = "cancel"
	ActionReviewParts Action = "review_parts"
	ActionRate        Action = "rate"
	ActionStart       Action = "start"
	ActionAddParts    Action = "add_parts"
	ActionComplete    Action = "complete"
)

// RatingWindowDays is how many whole days after completion a user may still rate.
const RatingWindowDays = 3

// Input is everything the matrix looks at.
type Input struct {
	Role                     models.Role
	Status                   models.BookingStatus
	PaymentStatus            models.PaymentStatus
	HasReplacementParts      bool
	ReplacementPartsApproved *bool
	IsRated                  bool
	CompletedAt              time.Time
	Scheduled                time.Time
	ScheduleValid            bool
	Now                      time.Time
}

// FromBooking builds the matrix input for b as seen by role. scheduled is the
// parsed slot start; pass a non-nil scheduleErr when it could not be parsed.
func FromBooking(b models.Booking, role models.Role, scheduled time.Time, scheduleErr error, now time.Time) Input {
	in := Input{
		Role:                     role,
		Status:                   b.Status,
		PaymentStatus:            b.Payment.Status,
		HasReplacementParts:      b.HasReplacementParts(),
		ReplacementPartsApproved: b.ReplacementPartsApproved,
		IsRated:                  b.IsRated,
		Scheduled:                scheduled,
		ScheduleValid:            scheduleErr == nil && !scheduled.IsZero(),
		Now:                      now,
	}
	switch {
	case b.CompletedAt != nil:
		in.CompletedAt = *b.CompletedAt
	case b.Status == models.StatusCompleted:
		in.CompletedAt = b.UpdatedAt
	}
	return in
}

// DaysSinceCompletion returns whole days elapsed since completion, or -1 when unknown.
func (in Input) DaysSinceCompletion() int {
	if in.CompletedAt.IsZero() || in.Now.Before(in.CompletedAt) {
		return -1
	}
	return int(in.Now.Sub(in.CompletedAt) / (24 * time.Hour))
}

// For returns the visible actions in display order. ActionDetails is always first.
func For(in Input) []Action {
	out := []Action{ActionDetails}
	switch in.Role {
	case models.RoleUser:
		out = append(out, userActions(in)...)
	case models.RoleTechnician:
		out = append(out, technicianActions(in)...)
	case models.RoleAdmin:
		if in.Status == models.StatusPending || in.Status == models.StatusBooked {
			out = append(out, ActionCancel)
		}
	}
	return out
}

func userActions(in Input) []Action {
	var out []Action
	if in.Status == models.StatusBooked {
		out = append(out, ActionChat)
	}
	if in.Status == models.StatusPaymentPending ||
		(in.Status == models.StatusCompleted && in.PaymentStatus == models.PaymentPartiallyPaid) {
		out = append(out, ActionPay)
	}
	if in.Status == models.StatusPending || in.Status == models.StatusBooked {
		out = append(out, ActionCancel)
	}
	if in.Status == models.StatusInProgress && in.HasReplacementParts && in.ReplacementPartsApproved == nil {
		out = append(out, ActionReviewParts)
	}
	if canRate(in) {
		out = append(out, ActionRate)
	}
	return out
}

func canRate(in Input) bool {
	if in.Status != models.StatusCompleted || in.PaymentStatus != models.PaymentPaid || in.IsRated {
		return false
	}
	days := in.DaysSinceCompletion()
	return days >= 0 && days <= RatingWindowDays
}

func technicianActions(in Input) []Action {
	var out []Action
	switch in.Status {
	case models.StatusBooked:
		out = append(out, ActionChat)
		if in.ScheduleValid {
			if policy.SameDay(in.Scheduled, in.Now) {
				out = append(out, ActionStart)
			} else if policy.TechnicianCanCancel(in.Scheduled, in.Now) == nil {
				out = append(out, ActionCancel)
			}
		}
	case models.StatusInProgress:
		if !in.HasReplacementParts {
			out = append(out, ActionAddParts)
		}
		if !in.HasReplacementParts || in.ReplacementPartsApproved != nil {
			out = append(out, ActionComplete)
		}
	}
	return out
}

// Has reports whether a is in actions.
func Has(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
