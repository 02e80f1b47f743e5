package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/services/actions"
	"servicehub/services/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errActionNotAllowed = errors.New("action not available for this booking")

// BookingView is a booking plus what the caller may do with it.
type BookingView struct {
	models.Booking
	Actions           []actions.Action          `json:"actions"`
	RefundQuote       *policy.RefundQuote       `json:"refundQuote,omitempty"`
	CancelEligibility *policy.CancelEligibility `json:"cancelEligibility,omitempty"`
	ScheduleError     string                    `json:"scheduleError,omitempty"`
}

func (hb *HandlerBundle) decorate(b models.Booking, role models.Role) BookingView {
	hb.resolveImages(&b)
	now := hb.now()
	scheduled, err := policy.SlotStart(b.TimeSlot, hb.location())
	v := BookingView{
		Booking: b,
		Actions: actions.For(actions.FromBooking(b, role, scheduled, err, now)),
	}
	if err != nil {
		v.ScheduleError = err.Error()
		return v
	}

	switch role {
	case models.RoleUser:
		if actions.Has(v.Actions, actions.ActionCancel) {
			q := policy.QuoteRefund(b.Amount, scheduled, now)
			v.RefundQuote = &q
		}
	case models.RoleTechnician:
		if b.Status == models.StatusBooked {
			e := policy.EligibilityFor(scheduled, now)
			v.CancelEligibility = &e
		}
	}
	return v
}

// resolveImages makes the booking's image references absolute.
func (hb *HandlerBundle) resolveImages(b *models.Booking) {
	if hb.Assets == nil {
		return
	}
	if b.Service != nil {
		svc := *b.Service
		svc.Image = hb.Assets.URL(svc.Image)
		b.Service = &svc
	}
	for _, p := range []**models.UserSummary{&b.User, &b.Technician} {
		if *p != nil {
			u := **p
			u.Image = hb.Assets.URL(u.Image)
			*p = &u
		}
	}
}

// ListBookings returns one page of the caller's bookings with their actions.
func (hb *HandlerBundle) ListBookings(c *gin.Context) {
	_, role := middleware.CurrentUser(c)
	page, err := hb.client(c).ListBookings(c.Request.Context(), listQuery(c, "status"))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]BookingView, 0, len(page.Data))
	for _, b := range page.Data {
		views = append(views, hb.decorate(b, role))
	}
	c.JSON(http.StatusOK, gin.H{
		"bookings":    views,
		"totalPages":  page.TotalPages,
		"currentPage": page.CurrentPage,
		"total":       page.Total,
	})
}

func (hb *HandlerBundle) GetBooking(c *gin.Context) {
	_, role := middleware.CurrentUser(c)
	b, err := hb.client(c).GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hb.decorate(b, role))
}

// loadFor fetches the booking and checks that action is currently offered to the caller.
func (hb *HandlerBundle) loadFor(c *gin.Context, action actions.Action) (BookingView, bool) {
	_, role := middleware.CurrentUser(c)
	b, err := hb.client(c).GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return BookingView{}, false
	}
	v := hb.decorate(b, role)
	if !actions.Has(v.Actions, action) {
		err := fmt.Errorf("%w: %s on %s booking", errActionNotAllowed, action, b.Status)
		if action == actions.ActionCancel && role == models.RoleTechnician && b.Status == models.StatusBooked {
			if scheduled, serr := policy.SlotStart(b.TimeSlot, hb.location()); serr == nil {
				if perr := policy.TechnicianCanCancel(scheduled, hb.now()); perr != nil {
					err = perr
				}
			}
		}
		respondError(c, err)
		return BookingView{}, false
	}
	return v, true
}

func (hb *HandlerBundle) respondBooking(c *gin.Context, b models.Booking) {
	_, role := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, hb.decorate(b, role))
}

// CancelBooking cancels on behalf of any role. Technicians must respect the
// notice window and give a reason.
func (hb *HandlerBundle) CancelBooking(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	_, role := middleware.CurrentUser(c)
	v, ok := hb.loadFor(c, actions.ActionCancel)
	if !ok {
		return
	}
	if role == models.RoleTechnician {
		scheduled, err := policy.SlotStart(v.TimeSlot, hb.location())
		if err == nil {
			err = policy.CheckTechnicianCancel(scheduled, hb.now(), input.Reason)
		}
		if err != nil {
			respondError(c, err)
			return
		}
	}

	b, err := hb.client(c).CancelBooking(c.Request.Context(), v.ID, strings.TrimSpace(input.Reason))
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Booking cancelled", zap.String("bookingId", b.ID), zap.String("role", string(role)))
	hb.respondBooking(c, b)
}

func (hb *HandlerBundle) StartBooking(c *gin.Context) {
	v, ok := hb.loadFor(c, actions.ActionStart)
	if !ok {
		return
	}
	b, err := hb.client(c).StartBooking(c.Request.Context(), v.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	hb.respondBooking(c, b)
}

// CompleteBooking forwards the customer's OTP; the remote API checks it.
func (hb *HandlerBundle) CompleteBooking(c *gin.Context) {
	var input struct {
		OTP string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	v, ok := hb.loadFor(c, actions.ActionComplete)
	if !ok {
		return
	}
	b, err := hb.client(c).CompleteBooking(c.Request.Context(), v.ID, strings.TrimSpace(input.OTP))
	if err != nil {
		respondError(c, err)
		return
	}
	hb.respondBooking(c, b)
}

type partsInput struct {
	Parts []models.PartSelection `json:"parts" binding:"required,min=1,dive"`
}

// PartsQuote is the priced summary of a parts selection.
type PartsQuote struct {
	Lines []PartsQuoteLine `json:"lines"`
	Total float64          `json:"total"`
}

type PartsQuoteLine struct {
	models.PartSelection
	Subtotal float64 `json:"subtotal"`
}

func quoteParts(parts []models.PartSelection) (PartsQuote, error) {
	q := PartsQuote{Lines: make([]PartsQuoteLine, 0, len(parts))}
	for _, p := range parts {
		if p.Quantity <= 0 {
			return PartsQuote{}, fmt.Errorf("part %q: quantity must be positive", p.Part)
		}
		if p.Price < 0 || math.IsNaN(p.Price) {
			return PartsQuote{}, fmt.Errorf("part %q: invalid price", p.Part)
		}
		sub := math.Round(p.Subtotal()*100) / 100
		q.Lines = append(q.Lines, PartsQuoteLine{PartSelection: p, Subtotal: sub})
		q.Total += sub
	}
	q.Total = math.Round(q.Total*100) / 100
	return q, nil
}

// QuoteParts prices a selection without submitting it.
func (hb *HandlerBundle) QuoteParts(c *gin.Context) {
	var input partsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	q, err := quoteParts(input.Parts)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (hb *HandlerBundle) ProposeParts(c *gin.Context) {
	var input partsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := quoteParts(input.Parts); err != nil {
		badRequest(c, err)
		return
	}
	v, ok := hb.loadFor(c, actions.ActionAddParts)
	if !ok {
		return
	}
	b, err := hb.client(c).ProposeParts(c.Request.Context(), v.ID, input.Parts)
	if err != nil {
		respondError(c, err)
		return
	}
	hb.respondBooking(c, b)
}

func (hb *HandlerBundle) DecideParts(c *gin.Context) {
	var input struct {
		Approved *bool `json:"approved" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	v, ok := hb.loadFor(c, actions.ActionReviewParts)
	if !ok {
		return
	}
	b, err := hb.client(c).DecideParts(c.Request.Context(), v.ID, *input.Approved)
	if err != nil {
		respondError(c, err)
		return
	}
	hb.respondBooking(c, b)
}

func (hb *HandlerBundle) RateBooking(c *gin.Context) {
	var input struct {
		Rating int    `json:"rating" binding:"required,min=1,max=5"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	v, ok := hb.loadFor(c, actions.ActionRate)
	if !ok {
		return
	}
	b, err := hb.client(c).RateBooking(c.Request.Context(), v.ID, input.Rating, strings.TrimSpace(input.Review))
	if err != nil {
		respondError(c, err)
		return
	}
	hb.respondBooking(c, b)
}
