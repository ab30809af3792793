package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gikai/minutes"
)

// Compile-time interface verification.
var _ minutes.MeetingRepository = (*MeetingService)(nil)

// MeetingService implements minutes.MeetingRepository using SQLite.
type MeetingService struct {
	db *DB
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(db *DB) *MeetingService {
	return &MeetingService{db: db}
}

// CreateMeeting registers a meeting identifier and its minutes URL.
// Re-registering an identifier replaces the stored URL.
func (s *MeetingService) CreateMeeting(ctx context.Context, meeting *minutes.Meeting) error {
	if meeting.ID == "" {
		return minutes.Errorf(minutes.EINVALID, "meeting id is required")
	}
	if meeting.URL == "" {
		return minutes.Errorf(minutes.EINVALID, "meeting url is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meetings (id, url, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET url = excluded.url
	`, meeting.ID, meeting.URL, time.Now().UTC().Format(time.RFC3339))

	return err
}

// FindMeetingByID retrieves a meeting by identifier.
func (s *MeetingService) FindMeetingByID(ctx context.Context, id string) (*minutes.Meeting, error) {
	var meeting minutes.Meeting

	err := s.db.QueryRowContext(ctx, `
		SELECT id, url FROM meetings WHERE id = ?
	`, id).Scan(&meeting.ID, &meeting.URL)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, minutes.Errorf(minutes.ENOTFOUND, "meeting %q not found", id)
	}
	if err != nil {
		return nil, err
	}

	return &meeting, nil
}

// FindMeetings retrieves registered meetings, newest first.
func (s *MeetingService) FindMeetings(ctx context.Context, limit, offset int) ([]*minutes.Meeting, error) {
	query := "SELECT id, url FROM meetings ORDER BY created_at DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []*minutes.Meeting
	for rows.Next() {
		var m minutes.Meeting
		if err := rows.Scan(&m.ID, &m.URL); err != nil {
			return nil, err
		}
		meetings = append(meetings, &m)
	}

	return meetings, rows.Err()
}

// DeleteMeeting permanently removes a meeting registration.
func (s *MeetingService) DeleteMeeting(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM meetings WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return minutes.Errorf(minutes.ENOTFOUND, "meeting %q not found", id)
	}

	return nil
}
