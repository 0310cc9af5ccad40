package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smart-parking-backend/internal/model"
)

// Sentinel errors surfaced by the store. Callers translate them into the
// domain taxonomy at the engine boundary.
var (
	ErrNotFound       = errors.New("record not found")
	ErrWindowConflict = errors.New("booking window conflicts with an existing booking")
)

// Store defines the interface for all database operations the booking engine
// requires. The engine is storage-agnostic; this is the only seam.
type Store interface {
	DB() *gorm.DB

	SeedSlots(ctx context.Context, slots []model.Slot) error
	ListSlots(ctx context.Context) ([]model.Slot, error)
	GetSlot(ctx context.Context, id string) (*model.Slot, error)
	SetSlotActive(ctx context.Context, id string, active bool) error

	// CreateBookingConflictFree inserts the booking only if no active or
	// occupied booking on the same slot overlaps its window. Check and
	// insert run in one transaction.
	CreateBookingConflictFree(ctx context.Context, b *model.Booking, now time.Time) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	GetBookingByQR(ctx context.Context, qrCode string) (*model.Booking, error)
	BookingsByUser(ctx context.Context, userID string) ([]model.Booking, error)
	BlockingBookings(ctx context.Context, slotID string) ([]model.Booking, error)
	AllBlockingBookings(ctx context.Context) ([]model.Booking, error)
	AllBookings(ctx context.Context) ([]model.Booking, error)
	CountDistinctUsers(ctx context.Context) (int64, error)

	// Conditional transitions. Each reports whether the row actually moved,
	// so concurrent writers racing on the same booking see exactly one win.
	MarkCancelled(ctx context.Context, id string) (bool, error)
	MarkEntered(ctx context.Context, id string, at time.Time) (bool, error)
	MarkExited(ctx context.Context, id string, at time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string) (bool, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	InsertGateEvent(ctx context.Context, ev *model.GateEvent) error
	Reset(ctx context.Context, slots []model.Slot) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// SeedSlots inserts the fixed fleet, leaving already-present slots untouched.
func (s *gormStore) SeedSlots(ctx context.Context, slots []model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&slots).Error
}

func (s *gormStore) ListSlots(ctx context.Context) ([]model.Slot, error) {
	var slots []model.Slot
	if err := s.db.WithContext(ctx).Order("id").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (s *gormStore) GetSlot(ctx context.Context, id string) (*model.Slot, error) {
	var slot model.Slot
	err := s.db.WithContext(ctx).First(&slot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot %s: %w", id, err)
	}
	return &slot, nil
}

func (s *gormStore) SetSlotActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).Model(&model.Slot{}).Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update slot %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) CreateBookingConflictFree(ctx context.Context, b *model.Booking, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		// Half-open windows: abutting bookings (end == other start) pass.
		// An active booking already past its window is logically expired
		// and no longer blocks.
		err := tx.Model(&model.Booking{}).
			Where("slot_id = ? AND reserved_at < ? AND expires_at > ?", b.SlotID, b.ExpiresAt, b.ReservedAt).
			Where("(status = ? OR (status = ? AND expires_at > ?))",
				model.BookingOccupied, model.BookingActive, now).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check slot availability: %w", err)
		}
		if count > 0 {
			return ErrWindowConflict
		}

		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		// Refresh the legacy mirror when the window has already begun.
		if !now.Before(b.ReservedAt) && now.Before(b.ExpiresAt) {
			if err := setSlotMirror(tx, b.SlotID, model.SlotBooked, &b.UserID, &b.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", id, err)
	}
	return &b, nil
}

func (s *gormStore) GetBookingByQR(ctx context.Context, qrCode string) (*model.Booking, error) {
	var b model.Booking
	err := s.db.WithContext(ctx).First(&b, "qr_code = ?", qrCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by qr code: %w", err)
	}
	return &b, nil
}

func (s *gormStore) BookingsByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("reserved_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings for user %s: %w", userID, err)
	}
	return bookings, nil
}

func (s *gormStore) BlockingBookings(ctx context.Context, slotID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("slot_id = ? AND status IN ?", slotID, []string{model.BookingActive, model.BookingOccupied}).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get blocking bookings for slot %s: %w", slotID, err)
	}
	return bookings, nil
}

func (s *gormStore) AllBlockingBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("status IN ?", []string{model.BookingActive, model.BookingOccupied}).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get blocking bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) AllBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) CountDistinctUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Booking{}).
		Distinct("user_id").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (s *gormStore) MarkCancelled(ctx context.Context, id string) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ? AND entered_at IS NULL", id, model.BookingActive).
			Update("status", model.BookingCancelled)
		if res.Error != nil {
			return fmt.Errorf("failed to cancel booking %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return clearSlotMirrorFor(tx, id)
	})
	return applied, err
}

func (s *gormStore) MarkEntered(ctx context.Context, id string, at time.Time) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ? AND entered_at IS NULL", id, model.BookingActive).
			Updates(map[string]any{"status": model.BookingOccupied, "entered_at": at})
		if res.Error != nil {
			return fmt.Errorf("failed to mark booking %s entered: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		var b model.Booking
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to reload booking %s: %w", id, err)
		}
		return setSlotMirror(tx, b.SlotID, model.SlotOccupied, &b.UserID, &b.ID)
	})
	return applied, err
}

func (s *gormStore) MarkExited(ctx context.Context, id string, at time.Time) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).
			Where("id = ? AND entered_at IS NOT NULL AND exited_at IS NULL", id).
			Updates(map[string]any{"status": model.BookingCompleted, "exited_at": at})
		if res.Error != nil {
			return fmt.Errorf("failed to mark booking %s exited: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return clearSlotMirrorFor(tx, id)
	})
	return applied, err
}

func (s *gormStore) MarkExpired(ctx context.Context, id string) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ?", id, model.BookingActive).
			Update("status", model.BookingExpired)
		if res.Error != nil {
			return fmt.Errorf("failed to mark booking %s expired: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return clearSlotMirrorFor(tx, id)
	})
	return applied, err
}

// ExpireOverdue persists the expired transition for every active booking
// whose window has fully elapsed. The read paths already report such
// bookings as expired; this keeps the stored rows in step.
func (s *gormStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&model.Booking{}).
			Where("status = ? AND expires_at < ?", model.BookingActive, now).
			Pluck("id", &ids).Error
		if err != nil {
			return fmt.Errorf("failed to find overdue bookings: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		res := tx.Model(&model.Booking{}).
			Where("id IN ? AND status = ?", ids, model.BookingActive).
			Update("status", model.BookingExpired)
		if res.Error != nil {
			return fmt.Errorf("failed to expire overdue bookings: %w", res.Error)
		}
		expired = res.RowsAffected

		return tx.Model(&model.Slot{}).
			Where("current_booking_id IN ?", ids).
			Updates(map[string]any{
				"status":             model.SlotAvailable,
				"booked_by":          nil,
				"current_booking_id": nil,
			}).Error
	})
	return expired, err
}

func (s *gormStore) InsertGateEvent(ctx context.Context, ev *model.GateEvent) error {
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to insert gate event: %w", err)
	}
	return nil
}

// Reset wipes bookings and gate events and re-seeds the fixed fleet.
func (s *gormStore) Reset(ctx context.Context, slots []model.Slot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.Booking{}).Error; err != nil {
			return fmt.Errorf("failed to delete bookings: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&model.GateEvent{}).Error; err != nil {
			return fmt.Errorf("failed to delete gate events: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&model.Slot{}).Error; err != nil {
			return fmt.Errorf("failed to delete slots: %w", err)
		}
		if len(slots) == 0 {
			return nil
		}
		if err := tx.Create(&slots).Error; err != nil {
			return fmt.Errorf("failed to seed slots: %w", err)
		}
		return nil
	})
}

// setSlotMirror refreshes the legacy display columns on a slot.
func setSlotMirror(tx *gorm.DB, slotID, status string, bookedBy, bookingID *string) error {
	err := tx.Model(&model.Slot{}).Where("id = ?", slotID).
		Updates(map[string]any{
			"status":             status,
			"booked_by":          bookedBy,
			"current_booking_id": bookingID,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update slot mirror for %s: %w", slotID, err)
	}
	return nil
}

// clearSlotMirrorFor resets the mirror on whichever slot currently points at
// the given booking.
func clearSlotMirrorFor(tx *gorm.DB, bookingID string) error {
	err := tx.Model(&model.Slot{}).Where("current_booking_id = ?", bookingID).
		Updates(map[string]any{
			"status":             model.SlotAvailable,
			"booked_by":          nil,
			"current_booking_id": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear slot mirror for booking %s: %w", bookingID, err)
	}
	return nil
}
