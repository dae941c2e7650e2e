package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"orbat_bot/internal/model"
	"orbat_bot/migrations"
)

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ListTrackedOperations returns the IDs of every operation with a
// notification-state row.
func (s *SQLite) ListTrackedOperations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT operation_id FROM notification_states ORDER BY operation_id`)
	if err != nil {
		return nil, fmt.Errorf("query tracked operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan operation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetNotificationState loads the full tracking record for one operation.
// Returns (nil, nil) when the operation has never been seen.
func (s *SQLite) GetNotificationState(ctx context.Context, operationID string) (*model.NotificationState, error) {
	state := &model.NotificationState{OperationID: operationID}

	var mainID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT main_message_id FROM notification_states WHERE operation_id = ?`,
		operationID,
	).Scan(&mainID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan notification state: %w", err)
	}
	if mainID.Valid {
		v := int(mainID.Int64)
		state.MainMessageID = &v
	}

	pings, err := s.queryPings(ctx, operationID)
	if err != nil {
		return nil, err
	}
	state.Pings = pings

	subs, err := s.querySubscribers(ctx, operationID)
	if err != nil {
		return nil, err
	}
	state.Subscribers = subs

	snapshot, err := s.querySnapshot(ctx, operationID)
	if err != nil {
		return nil, err
	}
	state.Snapshot = snapshot

	return state, nil
}

func (s *SQLite) queryPings(ctx context.Context, operationID string) ([]model.PingMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, slot_id FROM ping_messages WHERE operation_id = ? ORDER BY rowid`,
		operationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pings []model.PingMessage
	for rows.Next() {
		var p model.PingMessage
		if err := rows.Scan(&p.MessageID, &p.SlotID); err != nil {
			return nil, fmt.Errorf("scan ping: %w", err)
		}
		pings = append(pings, p)
	}
	return pings, rows.Err()
}

func (s *SQLite) querySubscribers(ctx context.Context, operationID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM subscribers WHERE operation_id = ? ORDER BY rowid`,
		operationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (s *SQLite) querySnapshot(ctx context.Context, operationID string) ([]model.SlotState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot_id, is_open FROM slot_snapshots WHERE operation_id = ? ORDER BY rowid`,
		operationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []model.SlotState
	for rows.Next() {
		var st model.SlotState
		var open int
		if err := rows.Scan(&st.SlotID, &open); err != nil {
			return nil, fmt.Errorf("scan slot state: %w", err)
		}
		st.IsOpen = open == 1
		states = append(states, st)
	}
	return states, rows.Err()
}

// ApplyTick persists one watch tick atomically: every surviving state is
// upserted with its pings and snapshot replaced, and every removed
// operation is purged. Subscriber rows are left to AddSubscriber and
// RemoveSubscriber so a toggle landing mid-tick is not clobbered.
func (s *SQLite) ApplyTick(ctx context.Context, states []*model.NotificationState, removed []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range removed {
		for _, table := range []string{"notification_states", "ping_messages", "subscribers", "slot_snapshots"} {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE operation_id = ?`, table), id); err != nil {
				return fmt.Errorf("purge %s for %s: %w", table, id, err)
			}
		}
	}

	for _, state := range states {
		var mainID any
		if state.MainMessageID != nil {
			mainID = *state.MainMessageID
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notification_states (operation_id, main_message_id) VALUES (?, ?)
			 ON CONFLICT(operation_id) DO UPDATE SET main_message_id = excluded.main_message_id`,
			state.OperationID, mainID,
		); err != nil {
			return fmt.Errorf("upsert state %s: %w", state.OperationID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM ping_messages WHERE operation_id = ?`, state.OperationID); err != nil {
			return fmt.Errorf("clear pings %s: %w", state.OperationID, err)
		}
		for _, ping := range state.Pings {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ping_messages (operation_id, message_id, slot_id) VALUES (?, ?, ?)`,
				state.OperationID, ping.MessageID, ping.SlotID,
			); err != nil {
				return fmt.Errorf("insert ping %s: %w", state.OperationID, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM slot_snapshots WHERE operation_id = ?`, state.OperationID); err != nil {
			return fmt.Errorf("clear snapshot %s: %w", state.OperationID, err)
		}
		for _, st := range state.Snapshot {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO slot_snapshots (operation_id, slot_id, is_open) VALUES (?, ?, ?)`,
				state.OperationID, st.SlotID, boolToInt(st.IsOpen),
			); err != nil {
				return fmt.Errorf("insert slot state %s: %w", state.OperationID, err)
			}
		}
	}

	return tx.Commit()
}

// AddSubscriber enrolls a user for an operation's mention pings.
// Reports whether membership actually changed.
func (s *SQLite) AddSubscriber(ctx context.Context, operationID string, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO subscribers (operation_id, user_id) VALUES (?, ?)`,
		operationID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("add subscriber: %w", err)
	}
	return changedRows(res)
}

// RemoveSubscriber drops a user from an operation's mention pings.
// Removing an absent user is a no-op.
func (s *SQLite) RemoveSubscriber(ctx context.Context, operationID string, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscribers WHERE operation_id = ? AND user_id = ?`,
		operationID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove subscriber: %w", err)
	}
	return changedRows(res)
}

// ReplaceReminder stores a registration, replacing any prior one with the
// same (kind, area, user) key.
func (s *SQLite) ReplaceReminder(ctx context.Context, reg model.ReminderRegistration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reminders (kind, area, user_id, advance_minutes) VALUES (?, ?, ?, ?)`,
		string(reg.Kind), string(reg.Area), reg.UserID, reg.AdvanceMinutes,
	)
	if err != nil {
		return fmt.Errorf("replace reminder: %w", err)
	}
	return nil
}

// DeleteReminder removes the registration matching (kind, area, user),
// ignoring the advance value.
func (s *SQLite) DeleteReminder(ctx context.Context, kind model.ReminderKind, area model.Area, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE kind = ? AND area = ? AND user_id = ?`,
		string(kind), string(area), userID,
	)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// ListReminders returns every registration.
func (s *SQLite) ListReminders(ctx context.Context) ([]model.ReminderRegistration, error) {
	return s.queryReminders(ctx,
		`SELECT kind, area, user_id, advance_minutes FROM reminders ORDER BY kind, area, user_id`)
}

// ListUserReminders returns one user's registrations.
func (s *SQLite) ListUserReminders(ctx context.Context, userID int64) ([]model.ReminderRegistration, error) {
	return s.queryReminders(ctx,
		`SELECT kind, area, user_id, advance_minutes FROM reminders WHERE user_id = ? ORDER BY kind, area`,
		userID)
}

func (s *SQLite) queryReminders(ctx context.Context, query string, args ...any) ([]model.ReminderRegistration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var regs []model.ReminderRegistration
	for rows.Next() {
		var reg model.ReminderRegistration
		var kind, area string
		if err := rows.Scan(&kind, &area, &reg.UserID, &reg.AdvanceMinutes); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reg.Kind = model.ReminderKind(kind)
		reg.Area = model.Area(area)
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// AddGameMember enrolls a user in a game's subscription role.
func (s *SQLite) AddGameMember(ctx context.Context, game string, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO game_members (game, user_id) VALUES (?, ?)`,
		game, userID,
	)
	if err != nil {
		return false, fmt.Errorf("add game member: %w", err)
	}
	return changedRows(res)
}

// RemoveGameMember drops a user from a game's subscription role.
func (s *SQLite) RemoveGameMember(ctx context.Context, game string, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM game_members WHERE game = ? AND user_id = ?`,
		game, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove game member: %w", err)
	}
	return changedRows(res)
}

// ListGameMembers returns every user enrolled for a game.
func (s *SQLite) ListGameMembers(ctx context.Context, game string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM game_members WHERE game = ? ORDER BY user_id`, game)
	if err != nil {
		return nil, fmt.Errorf("query game members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game member: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func changedRows(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
