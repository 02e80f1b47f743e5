package models

import "time"

// DiscountType selects how a discount value is applied.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// OfferType narrows who an offer applies to.
type OfferType string

const (
	OfferGlobal    OfferType = "global"
	OfferCategory  OfferType = "category"
	OfferFirstTime OfferType = "first_time_user"
)

// Offer is a discount applied automatically at checkout.
type Offer struct {
	ID               string       `json:"_id"`
	Title            string       `json:"title"`
	Description      string       `json:"description,omitempty"`
	OfferType        OfferType    `json:"offerType"`
	Category         string       `json:"category,omitempty"`
	DiscountType     DiscountType `json:"discountType"`
	DiscountValue    float64      `json:"discountValue"`
	MaxDiscount      *float64     `json:"maxDiscount,omitempty"`
	MinBookingAmount float64      `json:"minBookingAmount"`
	ValidFrom        time.Time    `json:"validFrom"`
	ValidUntil       time.Time    `json:"validUntil"`
	IsActive         bool         `json:"isActive"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Coupon is a user-redeemable discount code.
type Coupon struct {
	ID               string       `json:"_id"`
	Code             string       `json:"code"`
	Description      string       `json:"description,omitempty"`
	DiscountType     DiscountType `json:"discountType"`
	DiscountValue    float64      `json:"discountValue"`
	MaxDiscount      *float64     `json:"maxDiscount,omitempty"`
	MinBookingAmount float64      `json:"minBookingAmount"`
	UsageLimit       int          `json:"usageLimit,omitempty"`
	UsedCount        int          `json:"usedCount,omitempty"`
	ValidFrom        time.Time    `json:"validFrom"`
	ValidUntil       time.Time    `json:"validUntil"`
	IsActive         bool         `json:"isActive"`
	CreatedAt        time.Time    `json:"createdAt"`
}
