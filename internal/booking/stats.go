package booking

import (
	"context"
	"time"

	"smart-parking-backend/internal/model"
)

// SlotCounts groups slots by derived status.
type SlotCounts struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Booked      int `json:"booked"`
	Occupied    int `json:"occupied"`
	Maintenance int `json:"maintenance"`
}

// Overview is the read-only statistics rollup. It is recomputed from the
// booking set on every call; available+booked+occupied+maintenance always
// equals the slot total, and the booking counts partition all bookings.
type Overview struct {
	TotalUsers        int64      `json:"totalUsers"`
	TotalBookings     int        `json:"totalBookings"`
	ActiveBookings    int        `json:"activeBookings"`
	CompletedBookings int        `json:"completedBookings"`
	CancelledBookings int        `json:"cancelledBookings"`
	ExpiredBookings   int        `json:"expiredBookings"`
	Slots             SlotCounts `json:"slots"`
}

// Stats aggregates users, bookings by effective status and slots by derived
// status as of now.
func (m *Manager) Stats(ctx context.Context, now time.Time) (*Overview, error) {
	users, err := m.store.CountDistinctUsers(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := m.store.AllBookings(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := m.store.ListSlots(ctx)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		TotalUsers:    users,
		TotalBookings: len(bookings),
	}

	blocking := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		switch b.EffectiveStatus(now) {
		case model.BookingActive, model.BookingOccupied:
			ov.ActiveBookings++
			blocking = append(blocking, b)
		case model.BookingCompleted:
			ov.CompletedBookings++
		case model.BookingCancelled:
			ov.CancelledBookings++
		case model.BookingExpired:
			ov.ExpiredBookings++
		}
	}

	bySlot := make(map[string][]model.Booking, len(slots))
	for _, b := range blocking {
		bySlot[b.SlotID] = append(bySlot[b.SlotID], b)
	}

	ov.Slots.Total = len(slots)
	for _, slot := range slots {
		switch DeriveSlotView(slot, bySlot[slot.ID], now).Status {
		case model.SlotAvailable:
			ov.Slots.Available++
		case model.SlotBooked:
			ov.Slots.Booked++
		case model.SlotOccupied:
			ov.Slots.Occupied++
		case model.SlotMaintenance:
			ov.Slots.Maintenance++
		}
	}

	return ov, nil
}
