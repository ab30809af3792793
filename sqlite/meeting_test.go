package sqlite_test

import (
	"context"
	"testing"

	"github.com/gikai/minutes"
	"github.com/gikai/minutes/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingService_CreateAndFind(t *testing.T) {
	t.Parallel()

	s := sqlite.NewMeetingService(mustOpenDB(t))
	ctx := context.Background()

	err := s.CreateMeeting(ctx, &minutes.Meeting{
		ID:  "sapporo-6030-1",
		URL: "https://ssp.kaigiroku.net/tenant/sapporo/MinuteView.html?council_id=6030&schedule_id=1",
	})
	require.NoError(t, err)

	got, err := s.FindMeetingByID(ctx, "sapporo-6030-1")
	require.NoError(t, err)
	assert.Equal(t, "sapporo-6030-1", got.ID)
	assert.Contains(t, got.URL, "council_id=6030")
}

func TestMeetingService_CreateReplacesURL(t *testing.T) {
	t.Parallel()

	s := sqlite.NewMeetingService(mustOpenDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateMeeting(ctx, &minutes.Meeting{ID: "m1", URL: "https://example.jp/old"}))
	require.NoError(t, s.CreateMeeting(ctx, &minutes.Meeting{ID: "m1", URL: "https://example.jp/new"}))

	got, err := s.FindMeetingByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.jp/new", got.URL)
}

func TestMeetingService_CreateValidation(t *testing.T) {
	t.Parallel()

	s := sqlite.NewMeetingService(mustOpenDB(t))
	ctx := context.Background()

	err := s.CreateMeeting(ctx, &minutes.Meeting{URL: "https://example.jp/a"})
	assert.Equal(t, minutes.EINVALID, minutes.ErrorCode(err))

	err = s.CreateMeeting(ctx, &minutes.Meeting{ID: "m1"})
	assert.Equal(t, minutes.EINVALID, minutes.ErrorCode(err))
}

func TestMeetingService_FindMeetingByID_NotFound(t *testing.T) {
	t.Parallel()

	s := sqlite.NewMeetingService(mustOpenDB(t))

	_, err := s.FindMeetingByID(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))
}

func TestMeetingService_FindMeetings_Pagination(t *testing.T) {
	t.Parallel()

	s := sqlite.NewMeetingService(mustOpenDB(t))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateMeeting(ctx, &minutes.Meeting{ID: id, URL: "https://example.jp/" + id}))
	}

	all, err := s.FindMeetings(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := s.FindMeetings(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.FindMeetings(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestMeetingService_DeleteMeeting(t *testing.T) {
	t.Parallel()

	s := sqlite.NewMeetingService(mustOpenDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateMeeting(ctx, &minutes.Meeting{ID: "m1", URL: "https://example.jp/a"}))
	require.NoError(t, s.DeleteMeeting(ctx, "m1"))

	_, err := s.FindMeetingByID(ctx, "m1")
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))

	err = s.DeleteMeeting(ctx, "m1")
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))
}
