package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"smart-parking-backend/internal/db"
	"smart-parking-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: mockDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteStore opens a per-test in-memory database with the full schema and
// one seeded slot.
func newSQLiteStore(t *testing.T) Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := gormDB.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, db.Migrate(gormDB))

	s := NewGormStore(gormDB)
	require.NoError(t, s.SeedSlots(context.Background(), []model.Slot{
		{ID: "A1", Floor: 1, IsActive: true, Status: model.SlotAvailable},
	}))
	return s
}

func mustCreateBooking(t *testing.T, s Store, slotID string, start time.Time, hours int) *model.Booking {
	t.Helper()
	b := &model.Booking{
		ID:         uuid.NewString(),
		UserID:     "user-1",
		SlotID:     slotID,
		Duration:   hours,
		ReservedAt: start,
		ExpiresAt:  start.Add(time.Duration(hours) * time.Hour),
		Status:     model.BookingActive,
		QRCode:     "PARKING-" + uuid.NewString(),
	}
	require.NoError(t, s.CreateBookingConflictFree(context.Background(), b, time.Now().UTC()))
	return b
}

func TestGormStore_GetSlotNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "slots" WHERE id = `)).
		WithArgs("Z9", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetSlot(context.Background(), "Z9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SetSlotActive(t *testing.T) {
	t.Run("updates existing slot", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "slots" SET`)).
			WithArgs(false, Any{}, "A1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, s.SetSlotActive(context.Background(), "A1", false))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing slot maps to not found", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "slots" SET`)).
			WithArgs(true, Any{}, "Z9").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		assert.ErrorIs(t, s.SetSlotActive(context.Background(), "Z9", true), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_CreateBookingConflictSQL(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	now := time.Now().UTC()
	b := &model.Booking{
		ID:         uuid.NewString(),
		UserID:     "user-1",
		SlotID:     "A1",
		Duration:   2,
		ReservedAt: now,
		ExpiresAt:  now.Add(2 * time.Hour),
		Status:     model.BookingActive,
		QRCode:     "PARKING-" + uuid.NewString(),
	}

	// An overlapping row makes the whole transaction roll back without an
	// INSERT ever being issued.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "bookings"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := s.CreateBookingConflictFree(context.Background(), b, now)
	assert.ErrorIs(t, err, ErrWindowConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CountDistinctUsers(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(DISTINCT("user_id")) FROM "bookings"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := s.CountDistinctUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_StaleActiveDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	// An active booking whose window already elapsed. The sweep has not run,
	// so the row still says active.
	past := time.Now().UTC().Add(-3 * time.Hour)
	mustCreateBooking(t, s, "A1", past, 1)

	fresh := mustCreateBooking(t, s, "A1", past, 2)
	got, err := s.GetBooking(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingActive, got.Status)
}

func TestGormStore_MarkEntered(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()
	b := mustCreateBooking(t, s, "A1", now, 2)

	applied, err := s.MarkEntered(ctx, b.ID, now)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingOccupied, got.Status)
	require.NotNil(t, got.EnteredAt)

	slot, err := s.GetSlot(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SlotOccupied, slot.Status)
	require.NotNil(t, slot.CurrentBookingID)
	assert.Equal(t, b.ID, *slot.CurrentBookingID)

	// The second writer loses.
	applied, err = s.MarkEntered(ctx, b.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestGormStore_MarkExited(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()
	b := mustCreateBooking(t, s, "A1", now, 2)

	// Not entered yet.
	applied, err := s.MarkExited(ctx, b.ID, now)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = s.MarkEntered(ctx, b.ID, now)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = s.MarkExited(ctx, b.ID, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, applied)

	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, got.Status)
	require.NotNil(t, got.ExitedAt)

	slot, err := s.GetSlot(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, model.SlotAvailable, slot.Status)
	assert.Nil(t, slot.CurrentBookingID)
	assert.Nil(t, slot.BookedBy)

	applied, err = s.MarkExited(ctx, b.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestGormStore_MarkCancelled(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	now := time.Now().UTC()

	t.Run("active booking cancels and frees the mirror", func(t *testing.T) {
		b := mustCreateBooking(t, s, "A1", now, 1)

		applied, err := s.MarkCancelled(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := s.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, got.Status)

		slot, err := s.GetSlot(ctx, "A1")
		require.NoError(t, err)
		assert.Equal(t, model.SlotAvailable, slot.Status)
	})

	t.Run("entered booking does not cancel", func(t *testing.T) {
		b := mustCreateBooking(t, s, "A1", now, 1)
		applied, err := s.MarkEntered(ctx, b.ID, now)
		require.NoError(t, err)
		require.True(t, applied)

		applied, err = s.MarkCancelled(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestGormStore_ExpireOverdue(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	start := time.Now().UTC().Add(-4 * time.Hour)
	overdue := mustCreateBooking(t, s, "A1", start, 1)

	// Point the mirror at the overdue booking so the sweep has something to
	// clear.
	require.NoError(t, s.DB().Model(&model.Slot{}).Where("id = ?", "A1").
		Updates(map[string]any{
			"status":             model.SlotBooked,
			"booked_by":          overdue.UserID,
			"current_booking_id": overdue.ID,
		}).Error)

	current := mustCreateBooking(t, s, "A1", time.Now().UTC(), 2)

	n, err := s.ExpireOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetBooking(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, got.Status)

	kept, err := s.GetBooking(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingActive, kept.Status)

	slot, err := s.GetSlot(ctx, "A1")
	require.NoError(t, err)
	assert.NotEqual(t, overdue.ID, deref(slot.CurrentBookingID))

	// Idempotent once everything overdue is swept.
	n, err = s.ExpireOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestGormStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	mustCreateBooking(t, s, "A1", time.Now().UTC(), 1)
	require.NoError(t, s.InsertGateEvent(ctx, &model.GateEvent{
		Gate: model.GateEntry, QRCode: "PARKING-x",
		Granted: false, Reason: "not_found", ScannedAt: time.Now().UTC(),
	}))

	fleet := []model.Slot{
		{ID: "B1", Floor: 2, IsActive: true, Status: model.SlotAvailable},
		{ID: "B2", Floor: 2, IsActive: true, Status: model.SlotAvailable},
	}
	require.NoError(t, s.Reset(ctx, fleet))

	bookings, err := s.AllBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "B1", slots[0].ID)
	assert.Equal(t, "B2", slots[1].ID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
