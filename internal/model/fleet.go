package model

import "fmt"

// NewFleet builds the fixed slot fleet seeded at startup: prefix + ordinal
// labels (A1..A6) on a single floor.
func NewFleet(count int, prefix string, floor int) []Slot {
	slots := make([]Slot, 0, count)
	for i := 1; i <= count; i++ {
		slots = append(slots, Slot{
			ID:       fmt.Sprintf("%s%d", prefix, i),
			Floor:    floor,
			IsActive: true,
			Status:   SlotAvailable,
		})
	}
	return slots
}
