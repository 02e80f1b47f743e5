package models

import "time"

type Technician struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Designation string    `json:"designation,omitempty"`
	Image       string    `json:"image,omitempty"`
	Rating      float64   `json:"rating,omitempty"`
	IsActive    bool      `json:"isActive"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
}

// JobDesignation is a technician trade managed by admins.
type JobDesignation struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubscriptionPlan is a paid technician plan.
type SubscriptionPlan struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	DurationInDays int      `json:"durationInDays"`
	CommissionRate float64  `json:"commissionRate"`
	Features       []string `json:"features,omitempty"`
	IsActive       bool     `json:"isActive"`
}
