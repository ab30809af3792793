// Package trafilatura wraps go-trafilatura to extract main content text
// from HTML when selector-based extraction comes up empty.
package trafilatura

import (
	"strings"

	"github.com/gikai/minutes"
	"github.com/markusmobius/go-trafilatura"
)

// Extractor extracts the main content of a page as plain text.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText processes raw HTML and returns the main content as plain
// text. Returns EPARSE when extraction fails.
func (e *Extractor) ExtractText(rawHTML string) (string, error) {
	if rawHTML == "" {
		return "", minutes.Errorf(minutes.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return "", minutes.Errorf(minutes.EPARSE, "content extraction failed: %v", err)
	}

	return strings.TrimSpace(result.ContentText), nil
}

// Title returns the page title detected during extraction, or "".
func (e *Extractor) Title(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{EnableFallback: true})
	if err != nil {
		return ""
	}
	return result.Metadata.Title
}
