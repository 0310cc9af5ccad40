package model

import "time"

// Booking statuses. Active and occupied bookings are the only ones that count
// toward slot availability.
const (
	BookingActive    = "active"
	BookingOccupied  = "occupied"
	BookingCompleted = "completed"
	BookingExpired   = "expired"
	BookingCancelled = "cancelled"
)

// Booking reserves a slot for the half-open window [ReservedAt, ExpiresAt).
type Booking struct {
	ID         string     `gorm:"primaryKey;size:64" json:"id"`
	UserID     string     `gorm:"index;size:64;not null" json:"userId"`
	SlotID     string     `gorm:"index;size:16;not null" json:"slotId"`
	Duration   int        `gorm:"not null" json:"duration"`
	ReservedAt time.Time  `gorm:"not null" json:"reservedAt"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expiresAt"`
	Status     string     `gorm:"index;size:16;not null" json:"status"`
	QRCode     string     `gorm:"uniqueIndex;size:80;not null" json:"qrCode"`
	EnteredAt  *time.Time `json:"enteredAt,omitempty"`
	ExitedAt   *time.Time `json:"exitedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"-"`
}

// EffectiveStatus reports the booking status as of now, treating an active
// booking whose window has fully elapsed as expired even before a writer has
// persisted that transition.
func (b *Booking) EffectiveStatus(now time.Time) string {
	if b.Status == BookingActive && now.After(b.ExpiresAt) {
		return BookingExpired
	}
	return b.Status
}

// Blocks reports whether the booking still counts toward slot availability.
func (b *Booking) Blocks(now time.Time) bool {
	s := b.EffectiveStatus(now)
	return s == BookingActive || s == BookingOccupied
}
