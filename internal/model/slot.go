package model

import "time"

// Displayed slot statuses, shared by the legacy mirror columns and the
// derived view.
const (
	SlotAvailable   = "available"
	SlotBooked      = "booked"
	SlotOccupied    = "occupied"
	SlotMaintenance = "maintenance"
)

// Slot represents a physical parking slot. Availability is never read from
// the Status/BookedBy/CurrentBookingID columns; those are a legacy mirror
// refreshed on transitions for older dashboard clients. Ground truth is the
// booking set (see internal/booking).
type Slot struct {
	ID       string `gorm:"primaryKey;size:16" json:"id"`
	Floor    int    `gorm:"not null;default:1" json:"floor"`
	IsActive bool   `gorm:"not null;default:true" json:"isActive"`

	// Legacy mirror, display hints only.
	Status           string  `gorm:"size:16;not null;default:available" json:"-"`
	BookedBy         *string `gorm:"size:64" json:"-"`
	CurrentBookingID *string `gorm:"size:64" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
