package models

import (
	"time"
)

// Shop is the tenant. Every barber, service and booking belongs to exactly
// one shop, and every query is scoped by its ID.
//
// AdminSecret is only populated on the value returned from signup. What we
// persist is the bcrypt hash, which never leaves the server.
type Shop struct {
	ID                 string    `json:"shopId"`
	Name               string    `json:"name"`
	OwnerName          string    `json:"ownerName,omitempty"`
	OwnerEmail         string    `json:"ownerEmail"`
	City               string    `json:"city,omitempty"`
	AdminSecret        string    `json:"adminSecret,omitempty"`
	AdminSecretHash    string    `json:"-"`
	SubscriptionStatus string    `json:"subscriptionStatus"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Public returns a copy safe to list: no secret, no hash.
func (s Shop) Public() Shop {
	s.AdminSecret = ""
	s.AdminSecretHash = ""
	return s
}

// SubscriptionPending is the status every shop starts in. It is reported
// to the tablet but never enforced.
const SubscriptionPending = "pending"

// Barber is a chair in a shop. Insertion order is display order.
type Barber struct {
	ID     string `json:"id"`
	ShopID string `json:"shopId"`
	Name   string `json:"name"`
}

// Service is a bookable item on a shop's menu.
// Inactive services stay visible in the dashboard but are hidden from the
// customer booking form.
type Service struct {
	ID              string  `json:"id"`
	ShopID          string  `json:"shopId"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"durationMinutes"`
	Price           float64 `json:"price"`
	IsActive        bool    `json:"isActive"`
}

// BookingStatus is where a client is in the shop's queue.
type BookingStatus string

const (
	StatusWaiting BookingStatus = "waiting"
	StatusInChair BookingStatus = "in_chair"
	StatusDone    BookingStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusInChair, StatusDone:
		return true
	}
	return false
}

// Booking is a customer's request for a service. Only Status changes after
// creation.
//
// BarberID/BarberName are empty for "any barber". ServiceID is empty when the
// service text did not match anything in the catalog.
type Booking struct {
	ID          string        `json:"id"`
	ShopID      string        `json:"shopId"`
	ClientName  string        `json:"clientName"`
	ClientPhone string        `json:"clientPhone"`
	BarberID    *string       `json:"barberId"`
	BarberName  *string       `json:"barberName"`
	ServiceID   *string       `json:"serviceId"`
	ServiceName string        `json:"serviceName"`
	ScheduledAt time.Time     `json:"scheduledAt"`
	Notes       *string       `json:"notes"`
	Status      BookingStatus `json:"status"`
	IsWalkIn    bool          `json:"isWalkIn"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ShopConfig is the catalog snapshot the tablet pulls on login.
type ShopConfig struct {
	ShopID             string    `json:"shopId"`
	Name               string    `json:"name"`
	SubscriptionStatus string    `json:"subscriptionStatus"`
	Barbers            []Barber  `json:"barbers"`
	Services           []Service `json:"services"`
}
