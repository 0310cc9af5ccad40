package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	m := NewManager(s)
	g := NewGate(s, nil)

	t.Run("empty system", func(t *testing.T) {
		ov, err := m.Stats(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, int64(0), ov.TotalUsers)
		assert.Equal(t, 0, ov.TotalBookings)
		assert.Equal(t, 2, ov.Slots.Total)
		assert.Equal(t, 2, ov.Slots.Available)
	})

	// One occupied booking, one future booking, one cancelled, one expired.
	occupied, err := m.Create(ctx, "u1", "A1", 2, nil)
	require.NoError(t, err)
	_, err = g.VerifyEntry(ctx, occupied.QRCode, time.Now().UTC())
	require.NoError(t, err)

	future := time.Now().UTC().Add(4 * time.Hour)
	_, err = m.Create(ctx, "u2", "A2", 1, &future)
	require.NoError(t, err)

	cancelled, err := m.Create(ctx, "u2", "A2", 1, nil)
	require.NoError(t, err)
	require.NoError(t, m.Cancel(ctx, cancelled.ID, "u2"))

	past := time.Now().UTC().Add(-5 * time.Hour)
	_, err = m.Create(ctx, "u3", "A2", 1, &past)
	require.NoError(t, err)

	now := time.Now().UTC()
	ov, err := m.Stats(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, int64(3), ov.TotalUsers)
	assert.Equal(t, 4, ov.TotalBookings)
	assert.Equal(t, 2, ov.ActiveBookings, "occupied and future bookings both count as active work")
	assert.Equal(t, 1, ov.CancelledBookings)
	assert.Equal(t, 1, ov.ExpiredBookings, "stale active booking reports as expired without a sweep")
	assert.Equal(t, 0, ov.CompletedBookings)

	// The booking counts partition the booking set.
	assert.Equal(t, ov.TotalBookings,
		ov.ActiveBookings+ov.CompletedBookings+ov.CancelledBookings+ov.ExpiredBookings)

	// Slot counts partition the fleet: A1 occupied, A2 available (its only
	// live booking is in the future).
	assert.Equal(t, 2, ov.Slots.Total)
	assert.Equal(t, 1, ov.Slots.Occupied)
	assert.Equal(t, 1, ov.Slots.Available)
	assert.Equal(t, 0, ov.Slots.Booked)
	assert.Equal(t, ov.Slots.Total,
		ov.Slots.Available+ov.Slots.Booked+ov.Slots.Occupied+ov.Slots.Maintenance)

	t.Run("exit moves the booking to completed and frees the slot", func(t *testing.T) {
		_, err := g.VerifyExit(ctx, occupied.QRCode, time.Now().UTC())
		require.NoError(t, err)

		ov, err := m.Stats(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, 1, ov.CompletedBookings)
		assert.Equal(t, 0, ov.Slots.Occupied)
		assert.Equal(t, 2, ov.Slots.Available)
	})

	t.Run("maintenance slot is counted separately", func(t *testing.T) {
		require.NoError(t, s.SetSlotActive(ctx, "A2", false))
		defer func() { require.NoError(t, s.SetSlotActive(ctx, "A2", true)) }()

		ov, err := m.Stats(ctx, time.Now().UTC())
		require.NoError(t, err)
		assert.Equal(t, 1, ov.Slots.Maintenance)
		assert.Equal(t, ov.Slots.Total,
			ov.Slots.Available+ov.Slots.Booked+ov.Slots.Occupied+ov.Slots.Maintenance)
	})
}
