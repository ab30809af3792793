// Package readability provides a generic main-content extractor used as
// a fallback when selector-driven extraction yields implausibly short
// text.
package readability

import (
	"strings"

	"github.com/gikai/minutes"
	"github.com/go-shiori/go-readability"
)

// Extractor wraps go-readability to pull the main readable text out of
// arbitrary HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the main textual content of the page.
func (e *Extractor) ExtractText(rawHTML string) (string, error) {
	if rawHTML == "" {
		return "", minutes.Errorf(minutes.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", minutes.Errorf(minutes.EPARSE, "readability extraction: %v", err)
	}

	return strings.TrimSpace(article.TextContent), nil
}

// Title returns the page title as readability sees it, or the empty
// string when extraction fails.
func (e *Extractor) Title(rawHTML string) string {
	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return ""
	}
	return article.Title
}
