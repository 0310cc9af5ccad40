package booking

import (
	"errors"
	"fmt"
)

// Domain errors. Handlers map these onto HTTP status codes; everything else
// that bubbles up from the store is an internal error.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Gate denial reasons.
const (
	DenyNotFound       = "not_found"
	DenyAlreadyEntered = "already_entered"
	DenyTooEarly       = "too_early"
	DenyExpired        = "expired"
	DenyNotEntered     = "not_entered"
	DenyAlreadyExited  = "already_exited"
)

// Denial is a refused gate scan. It is a normal protocol outcome, distinct
// from storage failures, and carries a machine reason plus a message fit for
// the gate display.
type Denial struct {
	Reason  string
	Message string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("gate denied (%s): %s", d.Reason, d.Message)
}

func deny(reason, message string) *Denial {
	return &Denial{Reason: reason, Message: message}
}
