package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"orbat_bot/internal/model"
)

func open(id string) *model.Slot {
	return &model.Slot{ID: id, Name: id}
}

func taken(id, who string) *model.Slot {
	return &model.Slot{ID: id, Name: id, Occupant: &who}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name       string
		prev       []model.SlotState
		current    []*model.Slot
		wantOpened []string
		wantFilled []string
	}{
		{
			name: "closed slot opens",
			prev: []model.SlotState{
				{SlotID: "Alpha-Rifleman-0", IsOpen: false},
			},
			current:    []*model.Slot{open("Alpha-Rifleman-0")},
			wantOpened: []string{"Alpha-Rifleman-0"},
		},
		{
			name: "open slot stays open",
			prev: []model.SlotState{
				{SlotID: "Alpha-Rifleman-0", IsOpen: true},
			},
			current: []*model.Slot{open("Alpha-Rifleman-0")},
		},
		{
			name: "open slot gets filled",
			prev: []model.SlotState{
				{SlotID: "Alpha-Rifleman-0", IsOpen: true},
			},
			current:    []*model.Slot{taken("Alpha-Rifleman-0", "J. Smith")},
			wantFilled: []string{"Alpha-Rifleman-0"},
		},
		{
			name:    "unseen open slot is not announced",
			prev:    nil,
			current: []*model.Slot{open("Bravo-Medic-0")},
		},
		{
			name:       "unseen occupied slot is reported filled",
			prev:       nil,
			current:    []*model.Slot{taken("Bravo-Medic-0", "A. Jones")},
			wantFilled: []string{"Bravo-Medic-0"},
		},
		{
			name: "occupied slot is always filled",
			prev: []model.SlotState{
				{SlotID: "Alpha-Rifleman-0", IsOpen: false},
			},
			current:    []*model.Slot{taken("Alpha-Rifleman-0", "J. Smith")},
			wantFilled: []string{"Alpha-Rifleman-0"},
		},
		{
			name: "mixed transitions",
			prev: []model.SlotState{
				{SlotID: "a", IsOpen: false},
				{SlotID: "b", IsOpen: true},
				{SlotID: "c", IsOpen: true},
			},
			current: []*model.Slot{
				open("a"),
				taken("b", "X"),
				open("c"),
				open("d"),
			},
			wantOpened: []string{"a"},
			wantFilled: []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compare(tt.prev, tt.current)
			if diff := cmp.Diff(tt.wantOpened, slotIDs(res.Opened)); diff != "" {
				t.Errorf("Opened mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantFilled, slotIDs(res.Filled)); diff != "" {
				t.Errorf("Filled mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func slotIDs(slots []*model.Slot) []string {
	if len(slots) == 0 {
		return nil
	}
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.ID
	}
	return ids
}

func TestSnapshot(t *testing.T) {
	slots := []*model.Slot{
		taken("a", "X"),
		open("b"),
		open("c"),
	}
	want := []model.SlotState{
		{SlotID: "a", IsOpen: false},
		{SlotID: "b", IsOpen: true},
		{SlotID: "c", IsOpen: true},
	}
	if diff := cmp.Diff(want, Snapshot(slots)); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
}
