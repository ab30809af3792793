package minutes

import "context"

// Scraper retrieves and normalizes the minutes of a single session.
// Implementations are stateless per call and hide source-specific
// retrieval strategies (browser rendering, iframe content, PDF-first
// flows, retry loops) behind a uniform contract.
type Scraper interface {
	// FetchMinutes retrieves the minutes behind the URL. Recoverable
	// failures inside a fallback strategy are absorbed; an error is
	// returned only when every strategy for the source is exhausted.
	FetchMinutes(ctx context.Context, url string) (*MinutesData, error)

	// ExtractMinutesText pulls the main textual body out of already
	// obtained HTML.
	ExtractMinutesText(html string) string

	// ExtractSpeakers pulls per-speaker attributed segments out of
	// already obtained HTML, in chronological order.
	ExtractSpeakers(html string) []SpeakerSegment
}

// Frame is the rendered content of one iframe on a page.
type Frame struct {
	Name string // id or name attribute, may be empty
	URL  string // resolved src
	HTML string
}

// RenderedPage is the result of rendering a page in a browser:
// the main document plus any iframe documents and the visible text.
type RenderedPage struct {
	URL         string
	HTML        string
	VisibleText string
	Frames      []Frame
}

// PageRenderer loads a URL in a headless browser, waits for client-side
// rendering to settle, and returns the rendered page.
// Implementations acquire a browser session per call and release it
// before returning, so one failed fetch cannot corrupt another's state.
type PageRenderer interface {
	Render(ctx context.Context, url string) (*RenderedPage, error)

	// Close releases any shared resources held by the renderer.
	Close() error
}
