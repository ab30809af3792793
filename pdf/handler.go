// Package pdf downloads PDF documents over HTTP and extracts their page
// text. Some municipal sources publish minutes only as PDFs, so retrieval
// must succeed even when text extraction does not.
package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gikai/minutes"
	ledongthuc "github.com/ledongthuc/pdf"
)

// DefaultDownloadTimeout is the default timeout for PDF downloads.
const DefaultDownloadTimeout = 30 * time.Second

// Handler downloads PDFs into a local directory and extracts page text.
type Handler struct {
	dir     string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout sets the download timeout.
// Defaults to DefaultDownloadTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates a Handler that stores downloads under dir.
func NewHandler(dir string, opts ...Option) *Handler {
	h := &Handler{
		dir:     dir,
		timeout: DefaultDownloadTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.client = &http.Client{Timeout: h.timeout}
	return h
}

// Filename derives the local file name for a PDF URL: the last path
// segment when it ends in .pdf, otherwise a hash of the URL.
func Filename(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		base := path.Base(u.Path)
		if strings.HasSuffix(strings.ToLower(base), ".pdf") {
			return base
		}
	}
	return fmt.Sprintf("%016x.pdf", xxhash.Sum64String(rawURL))
}

// Download retrieves the PDF at rawURL and stores it under the handler's
// directory. An empty filename derives one from the URL. Non-200
// responses and network failures return EPDFDOWNLOAD.
func (h *Handler) Download(ctx context.Context, rawURL, filename string) (string, error) {
	if filename == "" {
		filename = Filename(rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", minutes.Errorf(minutes.EPDFDOWNLOAD, "invalid PDF URL %q: %v", rawURL, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("pdf download failed", "url", rawURL, "err", err)
		return "", minutes.Errorf(minutes.EPDFDOWNLOAD, "downloading %q: %v", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("pdf download failed", "url", rawURL, "status", resp.StatusCode)
		return "", minutes.Errorf(minutes.EPDFDOWNLOAD, "HTTP %d for %q", resp.StatusCode, rawURL)
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", minutes.Errorf(minutes.EPDFDOWNLOAD, "creating %q: %v", h.dir, err)
	}

	dest := filepath.Join(h.dir, filename)
	f, err := os.Create(dest)
	if err != nil {
		return "", minutes.Errorf(minutes.EPDFDOWNLOAD, "creating %q: %v", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", minutes.Errorf(minutes.EPDFDOWNLOAD, "writing %q: %v", dest, err)
	}

	return dest, nil
}

// ExtractText extracts text from every page of the PDF at path, with a
// separator line before each page.
func (h *Handler) ExtractText(path string) (string, error) {
	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return "", minutes.Errorf(minutes.EPDFEXTRACT, "opening %q: %v", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fmt.Fprintf(&b, "--- page %d ---\n", i)
		text, err := page.GetPlainText(nil)
		if err != nil {
			h.logger.Warn("pdf page extraction failed", "path", path, "page", i, "err", err)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}

// DownloadAndExtract downloads the PDF and extracts its text. Extraction
// failure degrades to a placeholder referencing the stored file, so the
// PDF still counts as retrieved.
func (h *Handler) DownloadAndExtract(ctx context.Context, rawURL, filename string) (string, string, error) {
	path, err := h.Download(ctx, rawURL, filename)
	if err != nil {
		return "", "", err
	}

	text, err := h.ExtractText(path)
	if err != nil {
		h.logger.Warn("pdf text extraction failed", "path", path, "err", err)
		return path, fmt.Sprintf("[PDF saved at %s; text extraction failed]", path), nil
	}

	return path, text, nil
}
