package main_test

import (
	"bytes"
	"context"
	"testing"

	main "github.com/gikai/minutes/cmd/minutesfetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "minutesfetch")
	assert.Contains(t, stdout.String(), "urls")
}

func TestMain_Run_NoArgs(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_UnknownFlag(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--bogus", "https://example.jp/a.pdf"}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_InvalidFormat(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--format", "xml", "https://example.jp/a.pdf"}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestMain_Run_UploadRequiresStorageDir(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--upload", "https://example.jp/a.pdf"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--storage-dir")
}

func TestMain_Run_MeetingsRequiresDB(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--meetings", "sapporo-6030-1"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--db")
}

func TestMain_Run_UnknownMeetingReportsFailure(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	dir := t.TempDir()
	err := m.Run(context.Background(), []string{
		"--meetings",
		"--db", dir + "/minutes.db",
		"--no-cache",
		"-o", dir,
		"missing-meeting",
	}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, stdout.String(), "FAIL")
}

func TestMain_Run_UnmatchedURLReportsFailure(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	// An HTML page on an unknown host matches no scraper rule.
	err := m.Run(context.Background(), []string{
		"--no-cache",
		"-o", t.TempDir(),
		"https://unknown.example.jp/page.html",
	}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, stdout.String(), "FAIL")
	assert.Contains(t, stdout.String(), "1 failed")
}
