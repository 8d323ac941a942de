package scraper

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/dealcomb/dealcomb/app/sites"
)

// FeedDiscovery turns a marketplace's RSS/Atom listings feed into candidates
// through the same normalization path as HTML extraction. Sites that publish
// a feed get fresher discovery than selector scraping alone.
type FeedDiscovery struct {
	parser *gofeed.Parser
}

func NewFeedDiscovery() *FeedDiscovery {
	return &FeedDiscovery{
		parser: gofeed.NewParser(),
	}
}

func (d *FeedDiscovery) Run(data []byte, site *sites.Config) ([]Candidate, error) {
	feed, err := d.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var candidates []Candidate
	for _, item := range feed.Items {
		name := normalizeSpace(item.Title)
		if nameLen := utf8.RuneCountInString(name); nameLen < minNameLength || nameLen > maxNameLength {
			continue
		}
		if item.Link == "" {
			continue
		}

		description := truncate(normalizeSpace(item.Description), maxDescriptionLength)

		price := ParsePrice(name + " " + description)
		if !ValidPrice(price) {
			price = 0
		}

		keywordText := name + " " + description

		candidates = append(candidates, Candidate{
			Name:          name,
			Description:   description,
			AskingPrice:   price,
			AnnualRevenue: ParseRevenue(description),
			Industry:      BucketIndustry(keywordText),
			Source:        site.Name,
			Highlights:    DeriveHighlights(keywordText),
			OriginalURL:   item.Link,
		})
	}

	return candidates, nil
}
