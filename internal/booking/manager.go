package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"smart-parking-backend/internal/model"
	"smart-parking-backend/internal/store"
)

// Duration bounds for a booking, in hours.
const (
	MinDurationHours = 1
	MaxDurationHours = 24
)

// Manager owns the booking lifecycle. All mutations of the booking set go
// through it; raw booking state is never handed to callers for mutation.
type Manager struct {
	store store.Store

	// Per-slot creation locks. The store's transaction already prevents two
	// overlapping inserts from both committing, but serializing per slot
	// keeps the check-then-create race from ever reaching the database.
	slotLocks sync.Map // map[string]*sync.Mutex

	now func() time.Time
}

// NewManager creates a booking lifecycle manager on top of a store.
func NewManager(s store.Store) *Manager {
	return &Manager{store: s, now: time.Now}
}

func (m *Manager) slotLock(slotID string) *sync.Mutex {
	if v, ok := m.slotLocks.Load(slotID); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := m.slotLocks.LoadOrStore(slotID, mu)
	return actual.(*sync.Mutex)
}

// Create reserves a slot for [start, start+duration). startTime nil means
// the window begins now. Returns ErrValidation, ErrNotFound or ErrConflict.
func (m *Manager) Create(ctx context.Context, userID, slotID string, duration int, startTime *time.Time) (*model.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if slotID == "" {
		return nil, fmt.Errorf("%w: slotId is required", ErrValidation)
	}
	if duration < MinDurationHours || duration > MaxDurationHours {
		return nil, fmt.Errorf("%w: duration must be between %d and %d hours",
			ErrValidation, MinDurationHours, MaxDurationHours)
	}

	slot, err := m.store.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: slot %s", ErrNotFound, slotID)
		}
		return nil, err
	}
	if !slot.IsActive {
		return nil, fmt.Errorf("%w: slot %s is out of service", ErrValidation, slotID)
	}

	now := m.now().UTC()
	start := now
	if startTime != nil {
		start = startTime.UTC()
	}
	end := start.Add(time.Duration(duration) * time.Hour)

	b := &model.Booking{
		ID:         uuid.NewString(),
		UserID:     userID,
		SlotID:     slotID,
		Duration:   duration,
		ReservedAt: start,
		ExpiresAt:  end,
		Status:     model.BookingActive,
		QRCode:     "PARKING-" + uuid.NewString(),
	}

	mu := m.slotLock(slotID)
	mu.Lock()
	defer mu.Unlock()

	// Check the window in process first; the store transaction re-checks, so
	// a conflicting insert can never commit even across processes.
	existing, err := m.store.BlockingBookings(ctx, slotID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		e := &existing[i]
		if e.Blocks(now) && Overlaps(b.ReservedAt, b.ExpiresAt, e.ReservedAt, e.ExpiresAt) {
			return nil, fmt.Errorf("%w: slot is not available for the selected time", ErrConflict)
		}
	}

	if err := m.store.CreateBookingConflictFree(ctx, b, now); err != nil {
		if errors.Is(err, store.ErrWindowConflict) {
			return nil, fmt.Errorf("%w: slot is not available for the selected time", ErrConflict)
		}
		return nil, err
	}
	return b, nil
}

// Cancel marks a booking cancelled. Only the owner may cancel, and only
// while the booking is active and not yet entered; an entered booking must
// complete through the exit gate.
func (m *Manager) Cancel(ctx context.Context, bookingID, requesterID string) error {
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return err
	}

	if b.UserID != requesterID {
		return fmt.Errorf("%w: booking belongs to another user", ErrForbidden)
	}
	if b.EnteredAt != nil {
		return fmt.Errorf("%w: booking has been entered; use the exit gate", ErrForbidden)
	}
	if b.EffectiveStatus(m.now().UTC()) != model.BookingActive {
		return fmt.Errorf("%w: booking is no longer active", ErrConflict)
	}

	applied, err := m.store.MarkCancelled(ctx, bookingID)
	if err != nil {
		return err
	}
	if !applied {
		// A concurrent entry scan or expiry won the race.
		return fmt.Errorf("%w: booking is no longer cancellable", ErrConflict)
	}
	return nil
}

// Get fetches a booking, reporting passive expiry: an active booking past
// its window is returned as expired even before the sweeper persists it.
func (m *Manager) Get(ctx context.Context, bookingID string) (*model.Booking, error) {
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return nil, err
	}
	b.Status = b.EffectiveStatus(m.now().UTC())
	return b, nil
}

// ListByUser returns a user's bookings, most recent window first, with
// passive expiry applied.
func (m *Manager) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	bookings, err := m.store.BookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	for i := range bookings {
		bookings[i].Status = bookings[i].EffectiveStatus(now)
	}
	return bookings, nil
}

// SlotViews derives the displayed state of every slot at one instant.
func (m *Manager) SlotViews(ctx context.Context, now time.Time) ([]SlotView, error) {
	slots, err := m.store.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := m.store.AllBlockingBookings(ctx)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[string][]model.Booking, len(slots))
	for _, b := range bookings {
		bySlot[b.SlotID] = append(bySlot[b.SlotID], b)
	}

	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, DeriveSlotView(slot, bySlot[slot.ID], now))
	}
	return views, nil
}
