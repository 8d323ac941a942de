package scraper

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxHighlights = 3

// highlightKeywords are matched as substrings against the listing text; hits
// become highlight tags, capped at maxHighlights.
var highlightKeywords = []string{
	"profitable",
	"established",
	"turnkey",
	"growing",
	"recurring revenue",
	"absentee",
	"semi-absentee",
	"relocatable",
	"home-based",
	"seller financing",
}

// industryKeywords buckets free-form industry text by keyword match. Order
// matters: the first bucket with a hit wins.
var industryKeywords = []struct {
	bucket   string
	keywords []string
}{
	{"e-commerce", []string{"ecommerce", "e-commerce", "amazon", "fba", "shopify", "online store", "dropship"}},
	{"software", []string{"saas", "software", "app", "tech", "platform"}},
	{"content", []string{"blog", "content", "media", "newsletter", "youtube", "affiliate"}},
	{"food & beverage", []string{"restaurant", "cafe", "food", "beverage", "bakery", "bar"}},
	{"services", []string{"service", "agency", "consulting", "cleaning", "landscaping", "plumbing", "hvac"}},
	{"retail", []string{"retail", "store", "shop", "franchise"}},
	{"manufacturing", []string{"manufactur", "wholesale", "distribution", "industrial"}},
	{"health", []string{"health", "medical", "dental", "fitness", "gym", "spa", "salon"}},
}

var titleCaser = cases.Title(language.AmericanEnglish)

// DeriveHighlights returns highlight tags found in the given text, capped at
// three.
func DeriveHighlights(text string) []string {
	lower := strings.ToLower(text)

	var highlights []string
	for _, keyword := range highlightKeywords {
		if strings.Contains(lower, keyword) {
			highlights = append(highlights, titleCaser.String(keyword))
			if len(highlights) == maxHighlights {
				break
			}
		}
	}

	return highlights
}

// BucketIndustry maps free-form listing text to a coarse industry label, or
// "Other" when nothing matches.
func BucketIndustry(text string) string {
	lower := strings.ToLower(text)

	for _, entry := range industryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return titleCaser.String(entry.bucket)
			}
		}
	}

	return "Other"
}
