package scraper

import (
	"strings"
	"unicode/utf8"
)

// Verification outcomes for a re-fetched listing page.
const (
	VerificationLive    = "live"
	VerificationRemoved = "removed"
	VerificationPending = "pending"
)

var removedMarkers = []string{
	"no longer available",
	"listing not found",
	"page not found",
	"has been sold",
	"this listing has expired",
	"error 404",
	"404 not found",
}

var liveMarkers = []string{
	"asking price",
	"cash flow",
	"seller financing",
}

// ClassifyListingPage decides whether a previously scraped listing is still
// live based on its re-fetched page. Fetch failures are classified by the
// caller as pending; this function only sees successfully fetched HTML.
func ClassifyListingPage(html, listingName string) string {
	if len(html) < 1000 {
		return VerificationRemoved
	}

	lower := strings.ToLower(html)

	for _, marker := range removedMarkers {
		if strings.Contains(lower, marker) {
			return VerificationRemoved
		}
	}

	if containsNameFragment(lower, listingName) {
		return VerificationLive
	}

	for _, marker := range liveMarkers {
		if strings.Contains(lower, marker) {
			return VerificationLive
		}
	}

	// Page exists but carries neither the listing nor marketplace boilerplate;
	// leave the listing active until a clearer signal shows up.
	return VerificationPending
}

// containsNameFragment checks for a recognizable prefix of the listing name,
// enough to survive truncated headlines on the target page.
func containsNameFragment(lowerHTML, name string) bool {
	fragment := strings.ToLower(strings.TrimSpace(name))
	if runes := []rune(fragment); len(runes) > 30 {
		fragment = string(runes[:30])
	}
	if utf8.RuneCountInString(fragment) < minNameLength {
		return false
	}

	return strings.Contains(lowerHTML, fragment)
}
