package scrape_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gikai/minutes"
	"github.com/gikai/minutes/fs"
	"github.com/gikai/minutes/mock"
	"github.com/gikai/minutes/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(url string) *minutes.MinutesData {
	return &minutes.MinutesData{
		Source:    minutes.SourceID{CouncilID: "6030", ScheduleID: "1"},
		Title:     "令和6年第1回定例会",
		Content:   "ただいまから会議を開きます。",
		SourceURL: url,
		ScrapedAt: time.Now(),
	}
}

// matchAll routes every URL to the given scraper.
func matchAll(s minutes.Scraper) *scrape.Registry {
	return scrape.NewRegistry(scrape.Rule{
		Name:    "test",
		Match:   func(string) bool { return true },
		Scraper: s,
	})
}

func TestService_FetchFromURL_CacheHitSkipsScraper(t *testing.T) {
	t.Parallel()

	url := "https://ssp.kaigiroku.net/tenant/sapporo/MinuteView.html?council_id=6030&schedule_id=1"
	cached := testRecord(url)

	var scraperCalls int32
	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			atomic.AddInt32(&scraperCalls, 1)
			return testRecord(u), nil
		},
	}
	cache := &mock.Cache{
		GetFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return cached, nil
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper), Cache: cache}

	got, err := svc.FetchFromURL(context.Background(), url, true)

	require.NoError(t, err)
	assert.Same(t, cached, got)
	assert.Zero(t, atomic.LoadInt32(&scraperCalls))
}

func TestService_FetchFromURL_MissScrapesAndWritesThrough(t *testing.T) {
	t.Parallel()

	url := "https://ssp.kaigiroku.net/tenant/sapporo/MinuteView.html?council_id=6030&schedule_id=1"

	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return testRecord(u), nil
		},
	}
	var putURL string
	cache := &mock.Cache{
		GetFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return nil, minutes.Errorf(minutes.ENOTFOUND, "miss")
		},
		PutFn: func(ctx context.Context, u string, data *minutes.MinutesData) error {
			putURL = u
			return nil
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper), Cache: cache}

	got, err := svc.FetchFromURL(context.Background(), url, true)

	require.NoError(t, err)
	assert.Equal(t, url, got.SourceURL)
	assert.Equal(t, url, putURL)
}

func TestService_FetchFromURL_BypassCache(t *testing.T) {
	t.Parallel()

	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return testRecord(u), nil
		},
	}
	cache := &mock.Cache{
		GetFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			t.Fatal("cache must not be consulted when useCache is off")
			return nil, nil
		},
		PutFn: func(ctx context.Context, u string, data *minutes.MinutesData) error {
			t.Fatal("cache must not be written when useCache is off")
			return nil
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper), Cache: cache}

	_, err := svc.FetchFromURL(context.Background(), "https://example.jp/a", false)
	require.NoError(t, err)
}

func TestService_FetchFromURL_NoScraperMatches(t *testing.T) {
	t.Parallel()

	svc := &scrape.Service{Registry: scrape.NewRegistry()}

	_, err := svc.FetchFromURL(context.Background(), "https://unknown.example.jp/page", false)

	require.Error(t, err)
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))
}

func TestService_FetchFromURL_InvalidRecordRejected(t *testing.T) {
	t.Parallel()

	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return &minutes.MinutesData{SourceURL: u}, nil // no content
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper)}

	_, err := svc.FetchFromURL(context.Background(), "https://example.jp/a", false)

	require.Error(t, err)
	assert.Equal(t, minutes.EINVALID, minutes.ErrorCode(err))
}

func TestService_FetchFromURL_ArchivesSuccessfulScrapes(t *testing.T) {
	t.Parallel()

	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return testRecord(u), nil
		},
	}
	var archived *minutes.MinutesData
	archive := &mock.MinutesArchive{
		SaveMinutesFn: func(ctx context.Context, m *minutes.MinutesData) error {
			archived = m
			return nil
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper), Archive: archive}

	got, err := svc.FetchFromURL(context.Background(), "https://example.jp/a", false)

	require.NoError(t, err)
	require.NotNil(t, archived)
	assert.Same(t, got, archived)
}

func TestService_FetchFromURL_ArchiveFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return testRecord(u), nil
		},
	}
	archive := &mock.MinutesArchive{
		SaveMinutesFn: func(ctx context.Context, m *minutes.MinutesData) error {
			return minutes.Errorf(minutes.EINTERNAL, "database is locked")
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper), Archive: archive}

	got, err := svc.FetchFromURL(context.Background(), "https://example.jp/a", false)

	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestService_FetchFromURL_CacheWriteFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return testRecord(u), nil
		},
	}
	cache := &mock.Cache{
		GetFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return nil, minutes.Errorf(minutes.ENOTFOUND, "miss")
		},
		PutFn: func(ctx context.Context, u string, data *minutes.MinutesData) error {
			return minutes.Errorf(minutes.ECACHE, "disk full")
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper), Cache: cache}

	got, err := svc.FetchFromURL(context.Background(), "https://example.jp/a", true)

	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestService_FetchFromURL_ConcurrentSameURLSharesOneScrape(t *testing.T) {
	t.Parallel()

	url := "https://example.jp/shared"

	var scraperCalls int32
	release := make(chan struct{})
	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			atomic.AddInt32(&scraperCalls, 1)
			<-release
			return testRecord(u), nil
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper)}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := svc.FetchFromURL(context.Background(), url, false)
			assert.NoError(t, err)
			assert.NotNil(t, rec)
		}()
	}

	// Give all five callers time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&scraperCalls))
}

func TestService_FetchFromMeetingID(t *testing.T) {
	t.Parallel()

	url := "https://example.jp/minutes/42"
	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			return testRecord(u), nil
		},
	}
	repo := &mock.MeetingRepository{
		FindMeetingByIDFn: func(ctx context.Context, id string) (*minutes.Meeting, error) {
			require.Equal(t, "42", id)
			return &minutes.Meeting{ID: id, URL: url}, nil
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper), Meetings: repo}

	got, err := svc.FetchFromMeetingID(context.Background(), "42", false)

	require.NoError(t, err)
	assert.Equal(t, url, got.SourceURL)
}

func TestService_FetchFromMeetingID_NoURL(t *testing.T) {
	t.Parallel()

	repo := &mock.MeetingRepository{
		FindMeetingByIDFn: func(ctx context.Context, id string) (*minutes.Meeting, error) {
			return &minutes.Meeting{ID: id}, nil
		},
	}

	svc := &scrape.Service{Meetings: repo}

	_, err := svc.FetchFromMeetingID(context.Background(), "42", false)

	require.Error(t, err)
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))
}

func TestService_FetchFromMeetingID_NoRepository(t *testing.T) {
	t.Parallel()

	svc := &scrape.Service{}

	_, err := svc.FetchFromMeetingID(context.Background(), "42", false)

	require.Error(t, err)
	assert.Equal(t, minutes.EINTERNAL, minutes.ErrorCode(err))
}

func TestService_FetchMultiple_BoundedAndOrdered(t *testing.T) {
	t.Parallel()

	urls := make([]string, 5)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.jp/minutes/%d", i)
	}

	var inFlight, peak int32
	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return testRecord(u), nil
		},
	}

	svc := &scrape.Service{
		Registry:      matchAll(scraper),
		MaxConcurrent: 2,
	}

	results := svc.FetchMultiple(context.Background(), urls)

	require.Len(t, results, 5)
	for i, rec := range results {
		require.NotNil(t, rec, "slot %d", i)
		assert.Equal(t, urls[i], rec.SourceURL)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestService_FetchMultiple_FailureLeavesNilSlot(t *testing.T) {
	t.Parallel()

	scraper := &mock.Scraper{
		FetchMinutesFn: func(ctx context.Context, u string) (*minutes.MinutesData, error) {
			if strings.HasSuffix(u, "/bad") {
				return nil, minutes.Errorf(minutes.ECONNECTION, "unreachable")
			}
			return testRecord(u), nil
		},
	}

	svc := &scrape.Service{Registry: matchAll(scraper)}

	results := svc.FetchMultiple(context.Background(), []string{
		"https://example.jp/good",
		"https://example.jp/bad",
		"https://example.jp/also-good",
	})

	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
}

func TestService_ExportToText(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	m := testRecord("https://example.jp/minutes/1")
	m.Date = &date
	m.Speakers = []minutes.SpeakerSegment{
		{Name: "田中", Role: "議長", Content: "開会を宣言します。"},
	}

	svc := &scrape.Service{Files: fs.NewFiles(t.TempDir(), nil)}

	path, externalURL, err := svc.ExportToText(context.Background(), m, "", false)

	require.NoError(t, err)
	assert.Empty(t, externalURL)
	assert.Contains(t, path, "2024")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "タイトル: 令和6年第1回定例会")
	assert.Contains(t, text, "日付: 2024-03-15")
	assert.Contains(t, text, "○田中（議長）")
	assert.Contains(t, text, "開会を宣言します。")
}

func TestService_ExportToJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	m := testRecord("https://example.jp/minutes/1")
	m.Date = &date

	files := fs.NewFiles(t.TempDir(), nil)
	svc := &scrape.Service{Files: files}

	path, _, err := svc.ExportToJSON(context.Background(), m, "", false)
	require.NoError(t, err)

	var got minutes.MinutesData
	require.NoError(t, files.LoadJSON(path, &got))
	assert.Equal(t, m.Source, got.Source)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.Content, got.Content)
	require.NotNil(t, got.Date)
	assert.True(t, got.Date.Equal(date))
}

func TestService_ExportUpload_PathConvention(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	m := testRecord("https://example.jp/minutes/1")
	m.Date = &date

	var gotPath, gotType string
	storage := &mock.ObjectStorage{
		UploadFn: func(ctx context.Context, content []byte, path, contentType string) (string, error) {
			gotPath = path
			gotType = contentType
			return "https://storage.example.com/" + path, nil
		},
	}

	svc := &scrape.Service{Files: fs.NewFiles(t.TempDir(), nil), Storage: storage}

	_, externalURL, err := svc.ExportToText(context.Background(), m, "", true)

	require.NoError(t, err)
	assert.Equal(t, "scraped/2024/03/15/6030_1.txt", gotPath)
	assert.Equal(t, scrape.ContentTypeText, gotType)
	assert.Equal(t, "https://storage.example.com/scraped/2024/03/15/6030_1.txt", externalURL)
}

func TestService_ExportUpload_FailureDegradesToLocal(t *testing.T) {
	t.Parallel()

	m := testRecord("https://example.jp/minutes/1")

	storage := &mock.ObjectStorage{
		UploadFn: func(ctx context.Context, content []byte, path, contentType string) (string, error) {
			return "", minutes.Errorf(minutes.EUPLOAD, "bucket unreachable")
		},
	}

	svc := &scrape.Service{Files: fs.NewFiles(t.TempDir(), nil), Storage: storage}

	path, externalURL, err := svc.ExportToText(context.Background(), m, "", true)

	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Empty(t, externalURL)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestService_UploadPDF(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	files := fs.NewFiles(t.TempDir(), nil)
	local, err := files.SaveText("%PDF-1.4 stub", "6030_1.pdf")
	require.NoError(t, err)

	m := testRecord("https://example.jp/minutes/1")
	m.Date = &date
	m.Metadata = map[string]string{"pdfLocalPath": local}

	var gotPath, gotType string
	storage := &mock.ObjectStorage{
		UploadFn: func(ctx context.Context, content []byte, path, contentType string) (string, error) {
			gotPath = path
			gotType = contentType
			return "https://storage.example.com/" + path, nil
		},
	}

	svc := &scrape.Service{Files: files, Storage: storage}

	url, err := svc.UploadPDF(context.Background(), m)

	require.NoError(t, err)
	assert.Equal(t, "scraped/2024/03/15/6030_1.pdf", gotPath)
	assert.Equal(t, scrape.ContentTypePDF, gotType)
	assert.Contains(t, url, "6030_1.pdf")
}

func TestService_UploadPDF_NoPDF(t *testing.T) {
	t.Parallel()

	svc := &scrape.Service{Files: fs.NewFiles(t.TempDir(), nil), Storage: &mock.ObjectStorage{}}

	_, err := svc.UploadPDF(context.Background(), testRecord("https://example.jp/minutes/1"))

	require.Error(t, err)
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))
}

func TestObjectPath_FallsBackToScrapeTime(t *testing.T) {
	t.Parallel()

	m := testRecord("https://example.jp/minutes/1")
	m.ScrapedAt = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "scraped/2025/12/01/6030_1.json", scrape.ObjectPath(m, "json"))
}

func TestFormatText_NoDateNoSpeakers(t *testing.T) {
	t.Parallel()

	m := testRecord("https://example.jp/minutes/1")

	text := scrape.FormatText(m)

	assert.Contains(t, text, "日付: 不明")
	assert.NotContains(t, text, "発言者")
}
