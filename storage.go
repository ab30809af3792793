package minutes

import "context"

// ObjectStorage is the external object-storage capability used when
// exporting minutes. Implementations are external collaborators; the
// acquisition layer only depends on this interface.
type ObjectStorage interface {
	// Upload stores content under the given path with the given content
	// type and returns the resulting public URL.
	Upload(ctx context.Context, content []byte, path, contentType string) (string, error)
}

// Meeting is the external repository's view of a scheduled session:
// just enough to resolve a meeting identifier to a source URL.
type Meeting struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// MeetingRepository resolves meeting identifiers to source URLs.
// The backing store is an external collaborator.
type MeetingRepository interface {
	// FindMeetingByID returns the meeting record for the identifier.
	// Returns ENOTFOUND if no such meeting exists.
	FindMeetingByID(ctx context.Context, id string) (*Meeting, error)
}

// MinutesArchive is durable storage for scraped minutes, keyed by the
// composite source identifier. Saving the same source twice replaces
// the stored record.
type MinutesArchive interface {
	// SaveMinutes stores or replaces the record.
	SaveMinutes(ctx context.Context, m *MinutesData) error

	// FindMinutesBySource returns the stored record for the source.
	// Returns ENOTFOUND if the source has never been archived.
	FindMinutesBySource(ctx context.Context, id SourceID) (*MinutesData, error)
}
