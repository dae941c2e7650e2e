package storage

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"orbat_bot/internal/model"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func intPtr(v int) *int { return &v }

func TestGetNotificationStateUnknown(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	state, err := s.GetNotificationState(ctx, "TF0000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state for unseen operation, got %+v", state)
	}
}

func TestApplyTickRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	state := &model.NotificationState{
		OperationID:   "TF0231",
		MainMessageID: intPtr(42),
		Pings: []model.PingMessage{
			{MessageID: 43, SlotID: "Alpha-Rifleman-1"},
			{MessageID: 44, SlotID: "Bravo-Combat Medic-0"},
		},
		Snapshot: []model.SlotState{
			{SlotID: "Alpha-Squad Leader-0", IsOpen: false},
			{SlotID: "Alpha-Rifleman-1", IsOpen: true},
		},
	}

	if err := s.ApplyTick(ctx, []*model.NotificationState{state}, nil); err != nil {
		t.Fatalf("apply tick: %v", err)
	}

	got, err := s.GetNotificationState(ctx, "TF0231")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(state, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}

	ids, err := s.ListTrackedOperations(ctx)
	if err != nil {
		t.Fatalf("list tracked: %v", err)
	}
	if diff := cmp.Diff([]string{"TF0231"}, ids); diff != "" {
		t.Errorf("tracked IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyTickReplacesPingsAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	first := &model.NotificationState{
		OperationID:   "TF0231",
		MainMessageID: intPtr(1),
		Pings:         []model.PingMessage{{MessageID: 2, SlotID: "a"}},
		Snapshot:      []model.SlotState{{SlotID: "a", IsOpen: true}},
	}
	if err := s.ApplyTick(ctx, []*model.NotificationState{first}, nil); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	second := &model.NotificationState{
		OperationID:   "TF0231",
		MainMessageID: intPtr(1),
		Pings:         []model.PingMessage{{MessageID: 3, SlotID: "b"}},
		Snapshot: []model.SlotState{
			{SlotID: "a", IsOpen: false},
			{SlotID: "b", IsOpen: true},
		},
	}
	if err := s.ApplyTick(ctx, []*model.NotificationState{second}, nil); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	got, err := s.GetNotificationState(ctx, "TF0231")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyTickRemoves(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	state := &model.NotificationState{
		OperationID:   "TF0231",
		MainMessageID: intPtr(1),
		Pings:         []model.PingMessage{{MessageID: 2, SlotID: "a"}},
		Snapshot:      []model.SlotState{{SlotID: "a", IsOpen: false}},
	}
	if err := s.ApplyTick(ctx, []*model.NotificationState{state}, nil); err != nil {
		t.Fatalf("apply tick: %v", err)
	}
	if _, err := s.AddSubscriber(ctx, "TF0231", 111); err != nil {
		t.Fatalf("add subscriber: %v", err)
	}

	if err := s.ApplyTick(ctx, nil, []string{"TF0231"}); err != nil {
		t.Fatalf("removal tick: %v", err)
	}

	got, err := s.GetNotificationState(ctx, "TF0231")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected state purged, got %+v", got)
	}

	ids, err := s.ListTrackedOperations(ctx)
	if err != nil {
		t.Fatalf("list tracked: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no tracked operations, got %v", ids)
	}
}

func TestSubscribersSurviveTicks(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	state := &model.NotificationState{OperationID: "TF0231"}
	if err := s.ApplyTick(ctx, []*model.NotificationState{state}, nil); err != nil {
		t.Fatalf("apply tick: %v", err)
	}
	if _, err := s.AddSubscriber(ctx, "TF0231", 111); err != nil {
		t.Fatalf("add subscriber: %v", err)
	}

	// A later tick carrying a stale in-memory subscriber list must not
	// clobber the membership written between ticks.
	if err := s.ApplyTick(ctx, []*model.NotificationState{state}, nil); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	got, err := s.GetNotificationState(ctx, "TF0231")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]int64{111}, got.Subscribers); diff != "" {
		t.Errorf("subscribers mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscriberIdempotence(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	changed, err := s.AddSubscriber(ctx, "TF0231", 111)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !changed {
		t.Error("first add should report a change")
	}

	changed, err = s.AddSubscriber(ctx, "TF0231", 111)
	if err != nil {
		t.Fatalf("repeat add: %v", err)
	}
	if changed {
		t.Error("repeat add should be a no-op")
	}

	changed, err = s.RemoveSubscriber(ctx, "TF0231", 111)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !changed {
		t.Error("remove should report a change")
	}

	changed, err = s.RemoveSubscriber(ctx, "TF0231", 111)
	if err != nil {
		t.Fatalf("repeat remove: %v", err)
	}
	if changed {
		t.Error("removing an absent subscriber should be a no-op")
	}
}

func TestReminderReplace(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	reg := model.ReminderRegistration{
		Kind: model.RemindRelease, Area: model.AreaInfantry, UserID: 111, AdvanceMinutes: 5,
	}
	if err := s.ReplaceReminder(ctx, reg); err != nil {
		t.Fatalf("replace: %v", err)
	}

	// Same key, new advance: the registration is replaced, not duplicated.
	reg.AdvanceMinutes = 15
	if err := s.ReplaceReminder(ctx, reg); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	other := model.ReminderRegistration{
		Kind: model.RemindStart, Area: model.AreaInfantry, UserID: 222, AdvanceMinutes: 30,
	}
	if err := s.ReplaceReminder(ctx, other); err != nil {
		t.Fatalf("replace other: %v", err)
	}

	all, err := s.ListReminders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []model.ReminderRegistration{reg, other}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("ListReminders mismatch (-want +got):\n%s", diff)
	}

	mine, err := s.ListUserReminders(ctx, 111)
	if err != nil {
		t.Fatalf("list user: %v", err)
	}
	if diff := cmp.Diff([]model.ReminderRegistration{reg}, mine); diff != "" {
		t.Errorf("ListUserReminders mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteReminder(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	reg := model.ReminderRegistration{
		Kind: model.RemindRelease, Area: model.AreaMedical, UserID: 111, AdvanceMinutes: 5,
	}
	if err := s.ReplaceReminder(ctx, reg); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := s.DeleteReminder(ctx, model.RemindRelease, model.AreaMedical, 111); err != nil {
		t.Fatalf("delete: %v", err)
	}

	all, err := s.ListReminders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected no reminders, got %v", all)
	}

	// Deleting an absent registration is a no-op.
	if err := s.DeleteReminder(ctx, model.RemindRelease, model.AreaMedical, 111); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestGameMembers(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	changed, err := s.AddGameMember(ctx, "Squad", 111)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !changed {
		t.Error("first add should report a change")
	}
	if changed, _ = s.AddGameMember(ctx, "Squad", 111); changed {
		t.Error("repeat add should be a no-op")
	}
	if _, err := s.AddGameMember(ctx, "Squad", 222); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if _, err := s.AddGameMember(ctx, "Arma 3", 333); err != nil {
		t.Fatalf("add other game: %v", err)
	}

	members, err := s.ListGameMembers(ctx, "Squad")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]int64{111, 222}, members); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	if changed, _ = s.RemoveGameMember(ctx, "Squad", 111); !changed {
		t.Error("remove should report a change")
	}
	if changed, _ = s.RemoveGameMember(ctx, "Squad", 111); changed {
		t.Error("repeat remove should be a no-op")
	}
}
