package booking

import "time"

// Overlaps reports whether the half-open windows [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Touching endpoints do not
// overlap, so a booking may begin exactly when another ends.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
