package booking

import (
	"context"
	"errors"
	"math"
	"time"

	"smart-parking-backend/internal/model"
	"smart-parking-backend/internal/store"
)

// Recorder receives every gate-scan outcome for the audit log. Recording
// happens off the scan path and must never block a gate decision.
type Recorder interface {
	Record(ev model.GateEvent)
}

// Gate drives the entry/exit state machine for bookings. Transitions are
// monotonic (not entered, entered, exited) and each succeeds at most once;
// a replayed scan always denies.
type Gate struct {
	store    store.Store
	recorder Recorder
}

// NewGate creates a gate verifier. recorder may be nil.
func NewGate(s store.Store, recorder Recorder) *Gate {
	return &Gate{store: s, recorder: recorder}
}

// EntryResult is a granted entry scan.
type EntryResult struct {
	BookingID string
	SlotID    string
	Duration  int
	ExpiresAt time.Time
}

// ExitResult is a granted exit scan.
type ExitResult struct {
	BookingID             string
	SlotID                string
	EnteredAt             time.Time
	ExitedAt              time.Time
	ActualDurationMinutes int
}

// VerifyEntry validates a QR scan at the entry gate. A denial is returned
// as *Denial; any other error is a storage failure, not a gate decision.
func (g *Gate) VerifyEntry(ctx context.Context, qrCode string, now time.Time) (*EntryResult, error) {
	res, err := g.verifyEntry(ctx, qrCode, now)
	g.record(model.GateEntry, qrCode, now, res, err)
	return res, err
}

func (g *Gate) verifyEntry(ctx context.Context, qrCode string, now time.Time) (*EntryResult, error) {
	b, err := g.store.GetBookingByQR(ctx, qrCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, deny(DenyNotFound, "Invalid QR code or booking not found")
		}
		return nil, err
	}

	if b.EnteredAt != nil {
		return nil, deny(DenyAlreadyEntered, "Already entered. Use this QR code at exit.")
	}
	if b.Status != model.BookingActive {
		return nil, deny(DenyNotFound, "Booking is no longer valid")
	}
	if now.Before(b.ReservedAt) {
		// Entering before the window would physically occupy the slot
		// outside the reserved interval; the overlap invariant is enforced
		// again here at the gate.
		return nil, deny(DenyTooEarly, "Booking window has not started yet")
	}
	if now.After(b.ExpiresAt) {
		// Terminal: the booking can never be entered after this.
		if _, err := g.store.MarkExpired(ctx, b.ID); err != nil {
			return nil, err
		}
		return nil, deny(DenyExpired, "QR code expired")
	}

	applied, err := g.store.MarkEntered(ctx, b.ID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent scan of the same code won.
		return nil, deny(DenyAlreadyEntered, "Already entered. Use this QR code at exit.")
	}

	return &EntryResult{
		BookingID: b.ID,
		SlotID:    b.SlotID,
		Duration:  b.Duration,
		ExpiresAt: b.ExpiresAt,
	}, nil
}

// VerifyExit validates a QR scan at the exit gate. Exit requires a prior
// matching entry scan and succeeds at most once.
func (g *Gate) VerifyExit(ctx context.Context, qrCode string, now time.Time) (*ExitResult, error) {
	res, err := g.verifyExit(ctx, qrCode, now)
	g.record(model.GateExit, qrCode, now, res, err)
	return res, err
}

func (g *Gate) verifyExit(ctx context.Context, qrCode string, now time.Time) (*ExitResult, error) {
	b, err := g.store.GetBookingByQR(ctx, qrCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, deny(DenyNotFound, "Invalid QR code")
		}
		return nil, err
	}

	if b.EnteredAt == nil {
		return nil, deny(DenyNotEntered, "Please use entry gate first")
	}
	if b.ExitedAt != nil {
		return nil, deny(DenyAlreadyExited, "Already exited")
	}

	applied, err := g.store.MarkExited(ctx, b.ID, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, deny(DenyAlreadyExited, "Already exited")
	}

	minutes := int(math.Round(now.Sub(*b.EnteredAt).Minutes()))
	if minutes < 0 {
		minutes = 0
	}

	return &ExitResult{
		BookingID:             b.ID,
		SlotID:                b.SlotID,
		EnteredAt:             *b.EnteredAt,
		ExitedAt:              now,
		ActualDurationMinutes: minutes,
	}, nil
}

func (g *Gate) record(gate, qrCode string, now time.Time, res any, err error) {
	if g.recorder == nil {
		return
	}

	ev := model.GateEvent{Gate: gate, QRCode: qrCode, ScannedAt: now}
	switch r := res.(type) {
	case *EntryResult:
		if r != nil {
			ev.Granted = true
			ev.BookingID = &r.BookingID
			ev.SlotID = &r.SlotID
		}
	case *ExitResult:
		if r != nil {
			ev.Granted = true
			ev.BookingID = &r.BookingID
			ev.SlotID = &r.SlotID
		}
	}

	var d *Denial
	if errors.As(err, &d) {
		ev.Reason = d.Reason
	} else if err != nil {
		// Storage failure, not a gate decision; leave it out of the audit log.
		return
	}
	g.recorder.Record(ev)
}
