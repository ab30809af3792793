package mock

import (
	"context"

	"github.com/gikai/minutes"
)

var _ minutes.ObjectStorage = (*ObjectStorage)(nil)

// ObjectStorage is a mock implementation of minutes.ObjectStorage.
type ObjectStorage struct {
	UploadFn func(ctx context.Context, content []byte, path, contentType string) (string, error)
}

func (s *ObjectStorage) Upload(ctx context.Context, content []byte, path, contentType string) (string, error) {
	return s.UploadFn(ctx, content, path, contentType)
}

var _ minutes.MeetingRepository = (*MeetingRepository)(nil)

// MeetingRepository is a mock implementation of minutes.MeetingRepository.
type MeetingRepository struct {
	FindMeetingByIDFn func(ctx context.Context, id string) (*minutes.Meeting, error)
}

func (r *MeetingRepository) FindMeetingByID(ctx context.Context, id string) (*minutes.Meeting, error) {
	return r.FindMeetingByIDFn(ctx, id)
}
