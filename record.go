package minutes

import "time"

// SourceID is the composite natural key the municipal source family uses
// to address a specific session's minutes: a council (body) identifier
// plus a per-session schedule identifier.
type SourceID struct {
	CouncilID  string `json:"councilId"`
	ScheduleID string `json:"scheduleId"`
}

// String returns the key in councilID_scheduleID form, as used in export
// file names and storage paths.
func (s SourceID) String() string {
	return s.CouncilID + "_" + s.ScheduleID
}

// SpeakerSegment is one speaker's attributed portion of a session.
// Segment order within MinutesData.Speakers is chronological.
type SpeakerSegment struct {
	Name    string `json:"name"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// MinutesData is the normalized record of a single session's minutes,
// created by a scraper and owned by the caller after return.
type MinutesData struct {
	Source      SourceID          `json:"sourceId"`
	Title       string            `json:"title"`
	Date        *time.Time        `json:"date,omitempty"`
	Content     string            `json:"content"`
	Speakers    []SpeakerSegment  `json:"speakers"`
	SourceURL   string            `json:"sourceUrl"`
	ScrapedAt   time.Time         `json:"scrapedAt"`
	PDFURL      string            `json:"pdfUrl,omitempty"`
	TextViewURL string            `json:"textViewUrl,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Validate returns an error if the record violates its invariants.
// Content is required: a scraper that extracts nothing must report
// failure rather than return a hollow record.
func (m *MinutesData) Validate() error {
	if m.SourceURL == "" {
		return Errorf(EINVALID, "minutes source URL required")
	}
	if m.Content == "" {
		return Errorf(EINVALID, "minutes content required")
	}
	return nil
}
