package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gikai/minutes"
)

// Compile-time interface verification.
var _ minutes.MinutesArchive = (*ArchiveService)(nil)

// ArchiveService implements minutes.MinutesArchive using SQLite. The
// composite source identifier is the primary key, so re-archiving a
// source replaces the stored record.
type ArchiveService struct {
	db *DB
}

// NewArchiveService creates a new ArchiveService.
func NewArchiveService(db *DB) *ArchiveService {
	return &ArchiveService{db: db}
}

// SaveMinutes stores or replaces the record.
func (s *ArchiveService) SaveMinutes(ctx context.Context, m *minutes.MinutesData) error {
	if err := m.Validate(); err != nil {
		return err
	}

	speakers, err := json.Marshal(m.Speakers)
	if err != nil {
		return fmt.Errorf("failed to encode speakers: %w", err)
	}
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	var date string
	if m.Date != nil {
		date = m.Date.Format(time.RFC3339)
	}
	scrapedAt := m.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO minutes (council_id, schedule_id, title, date, content,
			speakers, source_url, scraped_at, pdf_url, text_view_url, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(council_id, schedule_id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			content = excluded.content,
			speakers = excluded.speakers,
			source_url = excluded.source_url,
			scraped_at = excluded.scraped_at,
			pdf_url = excluded.pdf_url,
			text_view_url = excluded.text_view_url,
			metadata = excluded.metadata
	`, m.Source.CouncilID, m.Source.ScheduleID, m.Title, date, m.Content,
		string(speakers), m.SourceURL, scrapedAt.UTC().Format(time.RFC3339),
		m.PDFURL, m.TextViewURL, string(metadata))

	return err
}

// FindMinutesBySource returns the stored record for the source.
func (s *ArchiveService) FindMinutesBySource(ctx context.Context, id minutes.SourceID) (*minutes.MinutesData, error) {
	var (
		m                  minutes.MinutesData
		date, scrapedAt    string
		speakers, metadata string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT council_id, schedule_id, title, date, content, speakers,
			source_url, scraped_at, pdf_url, text_view_url, metadata
		FROM minutes
		WHERE council_id = ? AND schedule_id = ?
	`, id.CouncilID, id.ScheduleID).Scan(
		&m.Source.CouncilID, &m.Source.ScheduleID, &m.Title, &date, &m.Content,
		&speakers, &m.SourceURL, &scrapedAt, &m.PDFURL, &m.TextViewURL, &metadata)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, minutes.Errorf(minutes.ENOTFOUND, "minutes for %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	if date != "" {
		d, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		m.Date = &d
	}
	m.ScrapedAt, err = time.Parse(time.RFC3339, scrapedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scraped_at: %w", err)
	}
	if err := json.Unmarshal([]byte(speakers), &m.Speakers); err != nil {
		return nil, fmt.Errorf("failed to decode speakers: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return &m, nil
}

// FindMinutes retrieves archived records, most recently scraped first.
func (s *ArchiveService) FindMinutes(ctx context.Context, limit, offset int) ([]*minutes.MinutesData, error) {
	query := `
		SELECT council_id, schedule_id FROM minutes
		ORDER BY scraped_at DESC`
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

	var ids []minutes.SourceID
	for rows.Next() {
		var id minutes.SourceID
		if err := rows.Scan(&id.CouncilID, &id.ScheduleID); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]*minutes.MinutesData, 0, len(ids))
	for _, id := range ids {
		rec, err := s.FindMinutesBySource(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}
