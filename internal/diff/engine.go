// Package diff compares a fresh roster poll against the persisted snapshot.
package diff

import "orbat_bot/internal/model"

// Result lists the slot transitions found in one comparison.
type Result struct {
	// Opened holds slots that were closed in the snapshot and are vacant
	// now. Exactly these earn a ping.
	Opened []*model.Slot
	// Filled holds every currently occupied slot regardless of previous
	// state; any outstanding ping tied to one of them must be retired.
	Filled []*model.Slot
}

// Compare diffs the current slots against the previous snapshot, keyed by
// slot ID. Slots missing from the snapshot default to previously open,
// which suppresses pings for slots first seen in an operation's baseline.
func Compare(prev []model.SlotState, current []*model.Slot) Result {
	wasOpen := make(map[string]bool, len(prev))
	for _, s := range prev {
		wasOpen[s.SlotID] = s.IsOpen
	}

	var res Result
	for _, slot := range current {
		if !slot.IsOpen() {
			res.Filled = append(res.Filled, slot)
			continue
		}
		open, seen := wasOpen[slot.ID]
		if seen && !open {
			res.Opened = append(res.Opened, slot)
		}
	}
	return res
}

// Snapshot derives the persistable open/closed state of every slot.
func Snapshot(slots []*model.Slot) []model.SlotState {
	states := make([]model.SlotState, 0, len(slots))
	for _, slot := range slots {
		states = append(states, model.SlotState{SlotID: slot.ID, IsOpen: slot.IsOpen()})
	}
	return states
}
