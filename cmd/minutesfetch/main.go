package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gikai/minutes"
	"github.com/gikai/minutes/fs"
	"github.com/gikai/minutes/pdf"
	"github.com/gikai/minutes/rod"
	"github.com/gikai/minutes/scrape"
	mslog "github.com/gikai/minutes/slog"
	"github.com/gikai/minutes/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	OutDir      string        `short:"o" default:"./minutes_out" env:"MINUTES_OUT_DIR" help:"Directory for exported files"`
	CacheDir    string        `default:"./minutes_cache" env:"MINUTES_CACHE_DIR" help:"Directory for the URL cache"`
	StorageDir  string        `env:"MINUTES_STORAGE_DIR" help:"Directory acting as upload target (enables --upload)"`
	DB          string        `env:"MINUTES_DB" help:"SQLite database path for the meeting registry and minutes archive"`
	Meetings    bool          `short:"m" help:"Treat arguments as registered meeting identifiers instead of URLs"`
	Upload      bool          `help:"Upload exports to storage after saving locally"`
	NoCache     bool          `help:"Bypass the URL cache"`
	Format      string        `short:"f" default:"both" enum:"text,json,both" help:"Export format"`
	Concurrency int           `short:"c" default:"3" help:"Concurrent fetch limit"`
	Timeout     time.Duration `short:"t" default:"30s" help:"Page render timeout"`
	RateLimit   float64       `default:"1" help:"Requests per second per domain"`
	Verbose     bool          `short:"v" help:"Enable debug logging"`
	URLs        []string      `arg:"" required:"" help:"Minutes page or PDF URLs to fetch"`
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("minutesfetch"),
		kong.Description("Fetch council meeting minutes to local text/JSON files"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if cli.Upload && cli.StorageDir == "" {
		return fmt.Errorf("--upload requires --storage-dir")
	}
	if cli.Meetings && cli.DB == "" {
		return fmt.Errorf("--meetings requires --db")
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	svc, cleanup, err := m.buildService(cli, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var records []*minutes.MinutesData
	if cli.Meetings {
		records = m.fetchMeetings(ctx, svc, cli, logger)
	} else {
		records = svc.FetchMultiple(ctx, cli.URLs)
	}

	var failed int
	for i, rec := range records {
		if rec == nil {
			failed++
			fmt.Fprintf(stdout, "FAIL  %s\n", cli.URLs[i])
			continue
		}
		if err := m.export(ctx, svc, cli, rec, stdout, logger); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "\n%d fetched, %d failed\n", len(records)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs failed", failed, len(records))
	}
	return nil
}

// fetchMeetings resolves each identifier through the meeting registry
// and fetches its minutes. Failures leave nil slots, mirroring batch
// URL fetches.
func (m *Main) fetchMeetings(ctx context.Context, svc *scrape.Service, cli *CLI, logger *slog.Logger) []*minutes.MinutesData {
	records := make([]*minutes.MinutesData, len(cli.URLs))
	for i, id := range cli.URLs {
		rec, err := svc.FetchFromMeetingID(ctx, id, !cli.NoCache)
		if err != nil {
			logger.Warn("meeting fetch failed", "id", id, "err", err)
			continue
		}
		records[i] = rec
	}
	return records
}

// buildService wires the scrapers and the orchestrating service from the
// parsed flags.
func (m *Main) buildService(cli *CLI, logger *slog.Logger) (*scrape.Service, func(), error) {
	files := fs.NewFiles(cli.OutDir, logger)
	pdfs := pdf.NewHandler(files.BaseDir(), pdf.WithLogger(logger))

	renderer := rod.NewLoggingRenderer(
		rod.NewRenderer(rod.WithNavigationTimeout(cli.Timeout)),
		logger,
	)

	var pdfScraper minutes.Scraper = scrape.NewPDFScraper(pdfs, logger)
	var minView minutes.Scraper = scrape.NewMinuteViewScraper(renderer, pdfs, logger)
	var portal minutes.Scraper = scrape.NewPortalScraper(renderer, logger)
	if cli.Verbose {
		pdfScraper = mslog.NewLoggingScraper(pdfScraper, logger)
		minView = mslog.NewLoggingScraper(minView, logger)
		portal = mslog.NewLoggingScraper(portal, logger)
	}

	svc := &scrape.Service{
		Registry:      scrape.NewRegistry(scrape.DefaultRules(pdfScraper, minView, portal)...),
		Files:         files,
		Limiter:       scrape.NewDomainLimiter(cli.RateLimit),
		Logger:        logger,
		MaxConcurrent: cli.Concurrency,
	}
	if !cli.NoCache {
		svc.Cache = fs.NewURLCache(cli.CacheDir, logger)
	}
	if cli.StorageDir != "" {
		svc.Storage = fs.NewDirStorage(cli.StorageDir)
	}

	cleanup := func() {}
	if cli.DB != "" {
		db := sqlite.NewDB(cli.DB)
		if err := db.Open(); err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = db.Close() }
		svc.Meetings = sqlite.NewMeetingService(db)
		svc.Archive = sqlite.NewArchiveService(db)
	}
	return svc, cleanup, nil
}

// export writes the record in the requested formats and prints one line
// per saved file.
func (m *Main) export(ctx context.Context, svc *scrape.Service, cli *CLI, rec *minutes.MinutesData, stdout io.Writer, logger *slog.Logger) error {
	if cli.Upload && rec.Metadata["pdfLocalPath"] != "" {
		if url, err := svc.UploadPDF(ctx, rec); err != nil {
			logger.Warn("pdf upload failed", "source", rec.Source, "err", err)
		} else {
			printExport(stdout, rec, rec.Metadata["pdfLocalPath"], url)
		}
	}
	if cli.Format == "text" || cli.Format == "both" {
		path, url, err := svc.ExportToText(ctx, rec, "", cli.Upload)
		if err != nil {
			return fmt.Errorf("exporting %s as text: %w", rec.Source, err)
		}
		printExport(stdout, rec, path, url)
	}
	if cli.Format == "json" || cli.Format == "both" {
		path, url, err := svc.ExportToJSON(ctx, rec, "", cli.Upload)
		if err != nil {
			return fmt.Errorf("exporting %s as json: %w", rec.Source, err)
		}
		printExport(stdout, rec, path, url)
	}
	return nil
}

func printExport(w io.Writer, rec *minutes.MinutesData, path, url string) {
	if url != "" {
		fmt.Fprintf(w, "OK    %s -> %s (%s)\n", rec.SourceURL, path, url)
		return
	}
	fmt.Fprintf(w, "OK    %s -> %s\n", rec.SourceURL, path)
}
