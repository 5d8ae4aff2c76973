package model

import "strings"

// RateClass selects which row of the rate card and which tier table
// applies to a slot.
type RateClass string

const (
	RateClassMorning  RateClass = "morning"
	RateClassStandard RateClass = "standard"
)

// Slot is one of the named time windows a guest can book.  The set is
// closed; anything else is rejected before it reaches pricing.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

var slotInfo = map[Slot]struct {
	label string
	class RateClass
}{
	SlotMorning:   {"Morning (10:00 AM - 01:00 PM)", RateClassMorning},
	SlotAfternoon: {"Afternoon (01:30 PM - 04:30 PM)", RateClassStandard},
	SlotEvening:   {"Evening (05:00 PM - 08:00 PM)", RateClassStandard},
}

// Slots lists the bookable slots in display order.
func Slots() []Slot { return []Slot{SlotMorning, SlotAfternoon, SlotEvening} }

// ParseSlot accepts a slot key in any case and reports whether it is known.
func ParseSlot(s string) (Slot, bool) {
	slot := Slot(strings.ToLower(strings.TrimSpace(s)))
	_, ok := slotInfo[slot]
	return slot, ok
}

// Valid reports whether s belongs to the closed slot set.
func (s Slot) Valid() bool {
	_, ok := slotInfo[s]
	return ok
}

// Label is the human readable window shown to guests.
func (s Slot) Label() string { return slotInfo[s].label }

// Class returns the rate class; unknown slots fall back to standard.
func (s Slot) Class() RateClass {
	if info, ok := slotInfo[s]; ok {
		return info.class
	}
	return RateClassStandard
}
