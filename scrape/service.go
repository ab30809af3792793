package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gikai/minutes"
	"github.com/gikai/minutes/fs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxConcurrent bounds simultaneous in-flight fetches. Each
// in-flight fetch owns one browser instance, so the bound protects
// local resources as much as the target sites.
const DefaultMaxConcurrent = 3

// Content types used for uploaded exports.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"
	ContentTypePDF  = "application/pdf"
)

// Service orchestrates minutes acquisition: it selects a scraper by URL
// shape, applies the local cache, runs batched concurrent fetches, and
// exports results to text/JSON with optional upload to object storage.
// When an archive is configured, every successful scrape is recorded in
// it best-effort.
type Service struct {
	Registry *Registry
	Cache    minutes.Cache
	Archive  minutes.MinutesArchive
	Storage  minutes.ObjectStorage
	Meetings minutes.MeetingRepository
	Files    *fs.Files
	Limiter  *DomainLimiter
	Logger   *slog.Logger

	// MaxConcurrent bounds FetchMultiple; defaults to DefaultMaxConcurrent.
	MaxConcurrent int

	// group collapses concurrent fetches of the same URL into one
	// scrape, so two callers missing cache together do not both pay
	// for a browser session.
	group singleflight.Group
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// FetchFromURL retrieves the minutes behind a URL, consulting the cache
// first when useCache is set. Scraper failures are logged and returned
// as errors; no partial record is ever returned.
func (s *Service) FetchFromURL(ctx context.Context, url string, useCache bool) (*minutes.MinutesData, error) {
	if useCache && s.Cache != nil {
		m, err := s.Cache.Get(ctx, url)
		if err == nil {
			s.logger().Debug("cache hit", "url", url)
			return m, nil
		}
		if minutes.ErrorCode(err) != minutes.ENOTFOUND {
			s.logger().Warn("cache read failed", "url", url, "err", err)
		}
	}

	v, err, shared := s.group.Do(url, func() (any, error) {
		return s.fetch(ctx, url, useCache)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger().Debug("fetch shared with concurrent caller", "url", url)
	}
	return v.(*minutes.MinutesData), nil
}

// fetch runs one real scrape: scraper selection, politeness wait,
// scraping, validation, and cache write-through.
func (s *Service) fetch(ctx context.Context, url string, useCache bool) (*minutes.MinutesData, error) {
	scraper, name, ok := s.Registry.Select(url)
	if !ok {
		return nil, minutes.Errorf(minutes.ENOTFOUND, "no scraper available for %q", url)
	}

	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx, url); err != nil {
			return nil, err
		}
	}

	rec, err := scraper.FetchMinutes(ctx, url)
	if err != nil {
		s.logger().Warn("scrape failed", "scraper", name, "url", url, "err", err)
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		s.logger().Warn("scraper produced invalid record", "scraper", name, "url", url, "err", err)
		return nil, err
	}

	if useCache && s.Cache != nil {
		if err := s.Cache.Put(ctx, url, rec); err != nil {
			s.logger().Warn("cache write failed", "url", url, "err", err)
		}
	}
	if s.Archive != nil {
		if err := s.Archive.SaveMinutes(ctx, rec); err != nil {
			s.logger().Warn("archive write failed", "source", rec.Source, "err", err)
		}
	}

	s.logger().Info("scraped",
		"scraper", name,
		"url", url,
		"title", rec.Title,
		"bytes", len(rec.Content),
		"speakers", len(rec.Speakers),
	)
	return rec, nil
}

// FetchFromMeetingID resolves a meeting identifier to a URL through the
// external repository, then delegates to FetchFromURL.
func (s *Service) FetchFromMeetingID(ctx context.Context, id string, useCache bool) (*minutes.MinutesData, error) {
	if s.Meetings == nil {
		return nil, minutes.Errorf(minutes.EINTERNAL, "no meeting repository configured")
	}

	meeting, err := s.Meetings.FindMeetingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if meeting.URL == "" {
		return nil, minutes.Errorf(minutes.ENOTFOUND, "meeting %q has no minutes URL", id)
	}

	return s.FetchFromURL(ctx, meeting.URL, useCache)
}

// FetchMultiple fetches every URL with bounded concurrency. The result
// slice preserves input order regardless of completion order; a failed
// URL leaves a nil slot, with the failure logged.
func (s *Service) FetchMultiple(ctx context.Context, urls []string) []*minutes.MinutesData {
	concurrency := s.MaxConcurrent
	if concurrency <= 0 {
		concurrency = DefaultMaxConcurrent
	}

	results := make([]*minutes.MinutesData, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, url := range urls {
		g.Go(func() error {
			rec, err := s.FetchFromURL(gctx, url, true)
			if err != nil {
				s.logger().Warn("batch fetch failed", "url", url, "err", err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ExportToText serializes the record as plain text: header fields, the
// full content, then the speakers section. Returns the local path and,
// when upload succeeds, the external URL.
func (s *Service) ExportToText(ctx context.Context, m *minutes.MinutesData, filename string, upload bool) (string, string, error) {
	if filename == "" {
		filename = s.Files.GenerateFilename(m.Source.CouncilID, m.Source.ScheduleID, "txt")
	}

	path, err := s.Files.SaveText(FormatText(m), filename, s.Files.DateSubdirs(exportDate(m))...)
	if err != nil {
		return "", "", err
	}

	externalURL := s.upload(ctx, []byte(FormatText(m)), m, "txt", ContentTypeText, upload)
	return path, externalURL, nil
}

// ExportToJSON serializes the record as JSON. Returns the local path
// and, when upload succeeds, the external URL.
func (s *Service) ExportToJSON(ctx context.Context, m *minutes.MinutesData, filename string, upload bool) (string, string, error) {
	if filename == "" {
		filename = s.Files.GenerateFilename(m.Source.CouncilID, m.Source.ScheduleID, "json")
	}

	path, err := s.Files.SaveJSON(m, filename, s.Files.DateSubdirs(exportDate(m))...)
	if err != nil {
		return "", "", err
	}

	data, err := s.Files.LoadText(path)
	if err != nil {
		return "", "", err
	}

	externalURL := s.upload(ctx, []byte(data), m, "json", ContentTypeJSON, upload)
	return path, externalURL, nil
}

// UploadPDF pushes the locally saved source PDF of a record to object
// storage and returns the external URL. Records without a downloaded
// PDF yield ENOTFOUND.
func (s *Service) UploadPDF(ctx context.Context, m *minutes.MinutesData) (string, error) {
	localPath := m.Metadata["pdfLocalPath"]
	if localPath == "" {
		return "", minutes.Errorf(minutes.ENOTFOUND, "no downloaded pdf for %s", m.Source)
	}
	if s.Storage == nil {
		return "", minutes.Errorf(minutes.EINTERNAL, "no object storage configured")
	}

	content, err := s.Files.LoadBytes(localPath)
	if err != nil {
		return "", err
	}

	url, err := s.Storage.Upload(ctx, content, ObjectPath(m, "pdf"), ContentTypePDF)
	if err != nil {
		return "", minutes.Errorf(minutes.EUPLOAD, "uploading pdf for %s: %v", m.Source, err)
	}
	return url, nil
}

// upload pushes an export to object storage under the date-partitioned
// path convention. Upload failures degrade to "saved locally, not
// uploaded": they are logged and yield an empty URL, never an error.
func (s *Service) upload(ctx context.Context, content []byte, m *minutes.MinutesData, ext, contentType string, enabled bool) string {
	if !enabled || s.Storage == nil {
		return ""
	}

	path := ObjectPath(m, ext)
	url, err := s.Storage.Upload(ctx, content, path, contentType)
	if err != nil {
		s.logger().Warn("upload failed, export kept local only", "path", path, "err", err)
		return ""
	}
	return url
}

// ObjectPath builds the external storage path:
// scraped/{year}/{month}/{day}/{councilId}_{scheduleId}.{ext}
func ObjectPath(m *minutes.MinutesData, ext string) string {
	d := exportDate(m)
	return fmt.Sprintf("scraped/%04d/%02d/%02d/%s.%s",
		d.Year(), int(d.Month()), d.Day(), m.Source.String(), ext)
}

// exportDate partitions by session date when known, scrape time otherwise.
func exportDate(m *minutes.MinutesData) time.Time {
	if m.Date != nil {
		return *m.Date
	}
	if !m.ScrapedAt.IsZero() {
		return m.ScrapedAt
	}
	return time.Now()
}

// FormatText renders the plain-text export layout.
func FormatText(m *minutes.MinutesData) string {
	var b strings.Builder
	sep := strings.Repeat("-", 50)

	b.WriteString("タイトル: ")
	b.WriteString(m.Title)
	b.WriteString("\n日付: ")
	if m.Date != nil {
		b.WriteString(m.Date.Format("2006-01-02"))
	} else {
		b.WriteString("不明")
	}
	b.WriteString("\nURL: ")
	b.WriteString(m.SourceURL)
	b.WriteString("\n")
	b.WriteString(sep)
	b.WriteString("\n")
	b.WriteString(m.Content)
	b.WriteString("\n")

	if len(m.Speakers) > 0 {
		b.WriteString("\n")
		b.WriteString(sep)
		b.WriteString("\n発言者\n")
		b.WriteString(sep)
		b.WriteString("\n")
		for _, seg := range m.Speakers {
			b.WriteString("○")
			b.WriteString(seg.Name)
			if seg.Role != "" {
				b.WriteString("（")
				b.WriteString(seg.Role)
				b.WriteString("）")
			}
			b.WriteString("\n")
			b.WriteString(seg.Content)
			b.WriteString("\n")
		}
	}

	return b.String()
}
