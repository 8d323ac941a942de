package scraper

import (
	"fmt"
	"log/slog"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

const maxEnrichedDescriptionLength = 2000

// DescriptionExtractor pulls the full listing description out of a listing's
// own detail page, which carries far more text than the index-page snippet.
type DescriptionExtractor struct{}

func NewDescriptionExtractor() *DescriptionExtractor {
	return &DescriptionExtractor{}
}

func (e *DescriptionExtractor) Run(html string) (string, error) {
	if html == "" {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := normalizeSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Description extracted successfully",
		"title", article.Title,
		"content_length", len(text))

	return truncate(text, maxEnrichedDescriptionLength), nil
}
