package models

import "time"

// BookingStatus mirrors the server-owned booking lifecycle.
type BookingStatus string

const (
	StatusPending        BookingStatus = "Pending"
	StatusBooked         BookingStatus = "Booked"
	StatusInProgress     BookingStatus = "In Progress"
	StatusPaymentPending BookingStatus = "Payment Pending"
	StatusCancelled      BookingStatus = "Cancelled"
	StatusCompleted      BookingStatus = "Completed"
)

// PaymentStatus mirrors the payment sub-record status.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "Pending"
	PaymentPaid          PaymentStatus = "Paid"
	PaymentPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentRefunded      PaymentStatus = "Refunded"
	PaymentFailed        PaymentStatus = "Failed"
)

// Booking is a scheduled service instance as returned by the remote API.
type Booking struct {
	ID                       string          `json:"_id"`
	Status                   BookingStatus   `json:"status"`
	User                     *UserSummary    `json:"user,omitempty"`
	Technician               *UserSummary    `json:"technician,omitempty"`
	Service                  *ServiceSummary `json:"service,omitempty"`
	Address                  *Address        `json:"address,omitempty"`
	TimeSlot                 *TimeSlot       `json:"timeSlot,omitempty"`
	Amount                   float64         `json:"amount"`
	Payment                  BookingPayment  `json:"payment"`
	IsRated                  bool            `json:"isRated"`
	ReplacementParts         []PartSelection `json:"replacementParts,omitempty"`
	ReplacementPartsApproved *bool           `json:"replacementPartsApproved"` // nil while the customer has not decided
	CancellationReason       string          `json:"cancellationReason,omitempty"`
	CompletedAt              *time.Time      `json:"completedAt,omitempty"`
	CreatedAt                time.Time       `json:"createdAt"`
	UpdatedAt                time.Time       `json:"updatedAt"`
}

// BookingPayment is the payment sub-record of a booking.
type BookingPayment struct {
	Status          PaymentStatus `json:"status"`
	Method          string        `json:"method,omitempty"` // "online", "wallet" or "cash"
	AmountPaid      float64       `json:"amountPaid"`
	AdminShare      float64       `json:"adminShare"`
	TechnicianShare float64       `json:"technicianShare"`
	RefundAmount    float64       `json:"refundAmount,omitempty"`
	RefundStatus    string        `json:"refundStatus,omitempty"`
	RefundedAt      *time.Time    `json:"refundedAt,omitempty"`
}

// HasReplacementParts reports whether the technician proposed parts for this job.
func (b Booking) HasReplacementParts() bool {
	return len(b.ReplacementParts) > 0
}

// UserSummary is the populated reference to a user or technician.
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Image string `json:"image,omitempty"`
}

// ServiceSummary is the populated reference to a service.
type ServiceSummary struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

// Address is a user's service address.
type Address struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	PostCode string `json:"postCode,omitempty"`
}
