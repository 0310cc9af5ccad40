package model

import "time"

// Gate identifiers for GateEvent records.
const (
	GateEntry = "entry"
	GateExit  = "exit"
)

// GateEvent is an append-only record of a QR scan at one of the gate
// stations, written off the request path by the audit worker pool.
type GateEvent struct {
	ID        int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	Gate      string    `gorm:"size:8;not null;index" json:"gate"`
	QRCode    string    `gorm:"size:80;not null" json:"qrCode"`
	Granted   bool      `gorm:"not null" json:"granted"`
	Reason    string    `gorm:"size:32" json:"reason,omitempty"`
	BookingID *string   `gorm:"size:64;index" json:"bookingId,omitempty"`
	SlotID    *string   `gorm:"size:16" json:"slotId,omitempty"`
	ScannedAt time.Time `gorm:"not null;index" json:"scannedAt"`
	CreatedAt time.Time `json:"-"`
}
