package booking

import (
	"time"

	"smart-parking-backend/internal/model"
)

// WindowPreview exposes an upcoming booking window on an otherwise
// available slot.
type WindowPreview struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SlotView is a slot's displayed state at a single instant, computed from
// the booking set. It is never stored.
type SlotView struct {
	ID          string         `json:"id"`
	Floor       int            `json:"floor"`
	IsActive    bool           `json:"isActive"`
	Status      string         `json:"status"`
	BookedBy    *string        `json:"bookedBy"`
	BookingID   *string        `json:"bookingId"`
	NextBooking *WindowPreview `json:"nextBooking"`
}

// DeriveSlotView computes the slot's effective status from its bookings as
// of now. Pure with respect to its inputs; callers must use one consistent
// now across a request so slot lists agree with each other.
//
// A slot with only future bookings derives as available: the slot is not
// "booked" until its window begins, so a walk-up car can still use it. The
// earliest future window is surfaced as a non-binding preview instead.
func DeriveSlotView(slot model.Slot, bookings []model.Booking, now time.Time) SlotView {
	view := SlotView{
		ID:       slot.ID,
		Floor:    slot.Floor,
		IsActive: slot.IsActive,
		Status:   model.SlotAvailable,
	}
	if !slot.IsActive {
		view.Status = model.SlotMaintenance
		return view
	}

	var next *model.Booking
	for i := range bookings {
		b := &bookings[i]
		if b.SlotID != slot.ID || !b.Blocks(now) {
			continue
		}

		// At most one blocking window contains now, by the no-overlap rule.
		if !now.Before(b.ReservedAt) && now.Before(b.ExpiresAt) {
			if b.EnteredAt != nil {
				view.Status = model.SlotOccupied
			} else {
				view.Status = model.SlotBooked
			}
			view.BookedBy = &b.UserID
			view.BookingID = &b.ID
			view.NextBooking = nil
			return view
		}

		if b.ReservedAt.After(now) && (next == nil || b.ReservedAt.Before(next.ReservedAt)) {
			next = b
		}
	}

	if next != nil {
		view.NextBooking = &WindowPreview{Start: next.ReservedAt, End: next.ExpiresAt}
	}
	return view
}
