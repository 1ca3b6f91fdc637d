package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore is the relational adapter for users, rooms, and slots.
// Dangling references (a slot whose room was deleted out-of-band, an idea
// pointing at a removed slot) are tolerated by readers, not prevented here.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, created_at FROM users WHERE email=$1
	`, email).Scan(&user.ID, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, created_at FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, role, created_at FROM users ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ── Rooms ──

func (s *PostgresStore) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM rooms ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]Room, 0)
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

func (s *PostgresStore) InsertRoom(ctx context.Context, room Room) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, created_at) VALUES ($1, $2, $3)
	`, room.ID, room.Name, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id=$1`, roomID)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// CountSlotsForRoom backs the referential-integrity check on room deletion.
func (s *PostgresStore) CountSlotsForRoom(ctx context.Context, roomID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE room_id=$1`, roomID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count slots for room: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteAllRooms(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
		return fmt.Errorf("delete all rooms: %w", err)
	}
	return nil
}

// ── Slots ──

func (s *PostgresStore) ListSlots(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slots.id, slots.start_time, slots.duration_minutes, slots.room_id, rooms.name, slots.created_at
		FROM slots
		LEFT JOIN rooms ON slots.room_id = rooms.id
		ORDER BY slots.start_time, rooms.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	slots := make([]Slot, 0)
	for rows.Next() {
		var slot Slot
		if err := rows.Scan(&slot.ID, &slot.StartTime, &slot.DurationMinutes, &slot.RoomID, &slot.RoomName, &slot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

func (s *PostgresStore) InsertSlot(ctx context.Context, slot Slot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (id, start_time, duration_minutes, room_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, slot.ID, slot.StartTime, slot.DurationMinutes, slot.RoomID, slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSlot(ctx context.Context, slotID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE id=$1`, slotID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateSlotRoom(ctx context.Context, slotID, roomID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE slots SET room_id=$2 WHERE id=$1`, slotID, roomID)
	if err != nil {
		return fmt.Errorf("update slot room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update slot room result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteAllSlots(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots`); err != nil {
		return fmt.Errorf("delete all slots: %w", err)
	}
	return nil
}
