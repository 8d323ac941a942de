package scraper

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealcomb/dealcomb/app/sites"
)

const (
	minNameLength        = 5
	maxNameLength        = 200
	maxDescriptionLength = 500

	// A container selector matching more than this many elements wins
	// outright; otherwise the best-matching selector is used.
	selectorWinThreshold = 5
)

// Extractor turns raw marketplace HTML into listing candidates using the
// per-site selector lists.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run extracts listing candidates from a page. Elements that fail name or URL
// extraction are skipped without error; the stats report how many.
func (e *Extractor) Run(html string, site *sites.Config) ([]Candidate, ExtractionStats, error) {
	var stats ExtractionStats

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, stats, fmt.Errorf("failed to parse HTML: %w", err)
	}

	baseURL, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, stats, fmt.Errorf("invalid base URL %q: %w", site.BaseURL, err)
	}

	container := pickContainerSelection(doc, site.Selectors.Container)
	if container == nil {
		slog.Debug("No container selector matched", "site", site.Name)
		return nil, stats, nil
	}

	var candidates []Candidate
	container.Each(func(_ int, el *goquery.Selection) {
		stats.Matched++

		candidate, ok := e.extractElement(el, site, baseURL)
		if !ok {
			stats.Skipped++
			return
		}

		candidates = append(candidates, candidate)
	})

	return candidates, stats, nil
}

// pickContainerSelection tries selectors in order: the first one matching more
// than selectorWinThreshold elements wins and is used for every item on the
// page. When none clears the threshold, the selector with the most matches is
// used so that sparse pages still yield their few listings.
func pickContainerSelection(doc *goquery.Document, selectors []string) *goquery.Selection {
	var best *goquery.Selection
	bestCount := 0

	for _, selector := range selectors {
		sel := doc.Find(selector)
		count := sel.Length()

		if count > selectorWinThreshold {
			return sel
		}
		if count > bestCount {
			best = sel
			bestCount = count
		}
	}

	return best
}

func (e *Extractor) extractElement(el *goquery.Selection, site *sites.Config, baseURL *url.URL) (Candidate, bool) {
	name := firstText(el, site.Selectors.Name)
	if nameLen := utf8.RuneCountInString(name); nameLen < minNameLength || nameLen > maxNameLength {
		return Candidate{}, false
	}

	link := resolveLink(el, site.Selectors.Link, site.LinkFragment, baseURL)
	if link == "" {
		return Candidate{}, false
	}

	fullText := normalizeSpace(el.Text())

	price := ParsePrice(firstText(el, site.Selectors.Price))
	if price == 0 {
		price = ParsePrice(fullText)
	}
	if !ValidPrice(price) {
		price = 0
	}

	description := firstText(el, site.Selectors.Description)
	if description == "" {
		description = normalizeSpace(el.Find("p").First().Text())
	}
	description = truncate(description, maxDescriptionLength)

	keywordText := name + " " + description + " " + fullText

	return Candidate{
		Name:          name,
		Description:   description,
		AskingPrice:   price,
		AnnualRevenue: ParseRevenue(fullText),
		Industry:      BucketIndustry(keywordText),
		Location:      firstText(el, site.Selectors.Location),
		Source:        site.Name,
		Highlights:    DeriveHighlights(keywordText),
		OriginalURL:   link,
	}, true
}

// firstText returns the first non-empty trimmed text among the given
// selectors, tried in order.
func firstText(el *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		text := normalizeSpace(el.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// resolveLink finds the first anchor whose href contains the site's path
// fragment and absolutizes it against the base URL. Returns "" when no anchor
// qualifies; callers drop such elements.
func resolveLink(el *goquery.Selection, selectors []string, fragment string, baseURL *url.URL) string {
	candidates := el.Find("a[href]")
	for _, selector := range selectors {
		if found := el.Find(selector).FilterFunction(isAnchor); found.Length() > 0 {
			candidates = found
			break
		}
	}

	var resolved string
	candidates.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, fragment) {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}

		resolved = baseURL.ResolveReference(ref).String()
		return false
	})

	return resolved
}

func isAnchor(_ int, s *goquery.Selection) bool {
	return goquery.NodeName(s) == "a"
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
