package policy

import (
	"math"
	"time"
)

const (
	FullRefundHours    = 6.0
	PartialRefundHours = 2.0

	FullRefundPercentage    = 100
	PartialRefundPercentage = 50
)

// RefundQuote is what a user is told before confirming a cancellation.
type RefundQuote struct {
	HoursUntilService float64 `json:"hoursUntilService"`
	Percentage        int     `json:"percentage"`
	Amount            float64 `json:"amount"`
}

// RefundPercentage is a step function of the hours left before the service.
func RefundPercentage(hoursUntilService float64) int {
	switch {
	case math.IsNaN(hoursUntilService):
		return 0
	case hoursUntilService >= FullRefundHours:
		return FullRefundPercentage
	case hoursUntilService >= PartialRefundHours:
		return PartialRefundPercentage
	default:
		return 0
	}
}

// RefundAmount applies pct to amount, rounded to cents and kept within [0, amount].
func RefundAmount(amount float64, pct int) float64 {
	if amount <= 0 || pct <= 0 {
		return 0
	}
	refund := math.Round(amount*float64(pct)) / 100
	if refund > amount {
		return amount
	}
	return refund
}

// QuoteRefund computes the refund for cancelling a booking of amount scheduled at scheduled.
func QuoteRefund(amount float64, scheduled, now time.Time) RefundQuote {
	hours := HoursUntil(scheduled, now)
	pct := RefundPercentage(hours)
	return RefundQuote{
		HoursUntilService: math.Round(hours*100) / 100,
		Percentage:        pct,
		Amount:            RefundAmount(amount, pct),
	}
}
