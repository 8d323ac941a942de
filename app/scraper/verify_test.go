package scraper

import (
	"strings"
	"testing"
)

// padHTML grows a page body past the short-page threshold without adding
// marker text.
func padHTML(body string) string {
	return "<html><body>" + body + strings.Repeat("<div>filler content block</div>", 50) + "</body></html>"
}

func TestClassifyListingPageShortPageRemoved(t *testing.T) {
	got := ClassifyListingPage("<html><body>gone</body></html>", "Profitable Amazon FBA Brand")
	if got != VerificationRemoved {
		t.Errorf("Expected removed for short page, got %q", got)
	}
}

func TestClassifyListingPageRemovedMarkers(t *testing.T) {
	markers := []string{
		"This listing is no longer available.",
		"Page Not Found",
		"The business has been sold.",
		"This listing has expired",
	}

	for _, marker := range markers {
		got := ClassifyListingPage(padHTML(marker), "Profitable Amazon FBA Brand")
		if got != VerificationRemoved {
			t.Errorf("Expected removed for marker %q, got %q", marker, got)
		}
	}
}

func TestClassifyListingPageLiveByName(t *testing.T) {
	html := padHTML("<h1>Profitable Amazon FBA Brand</h1><p>Still for sale.</p>")

	got := ClassifyListingPage(html, "Profitable Amazon FBA Brand")
	if got != VerificationLive {
		t.Errorf("Expected live when page contains the listing name, got %q", got)
	}
}

func TestClassifyListingPageLiveByNamePrefix(t *testing.T) {
	// Long names are matched by their first 30 characters so truncated
	// headlines still count.
	name := "Profitable Amazon FBA Brand With A Very Long Descriptive Title"
	html := padHTML("<h1>" + name[:35] + "...</h1>")

	got := ClassifyListingPage(html, name)
	if got != VerificationLive {
		t.Errorf("Expected live for truncated headline, got %q", got)
	}
}

func TestClassifyListingPageMultibyteName(t *testing.T) {
	// The name fragment is cut at 30 runes; slicing bytes instead would split
	// an accented character and never match.
	name := "Établissement de Boulangerie Française à Lyon"
	html := padHTML("<h1>" + name + "</h1>")

	got := ClassifyListingPage(html, name)
	if got != VerificationLive {
		t.Errorf("Expected live for multibyte listing name, got %q", got)
	}
}

func TestClassifyListingPage404Markers(t *testing.T) {
	got := ClassifyListingPage(padHTML("<h1>Error 404</h1>"), "Profitable Amazon FBA Brand")
	if got != VerificationRemoved {
		t.Errorf("Expected removed for error 404 page, got %q", got)
	}

	got = ClassifyListingPage(padHTML("<h1>404 Not Found</h1>"), "Profitable Amazon FBA Brand")
	if got != VerificationRemoved {
		t.Errorf("Expected removed for 404 not found page, got %q", got)
	}
}

func TestClassifyListingPageIgnoresIncidental404(t *testing.T) {
	// A live page may reference "404" in asset paths or copy; only explicit
	// not-found phrasing counts as removal.
	html := padHTML(`<img src="/assets/img-404.png"><h1>Profitable Amazon FBA Brand</h1>`)

	got := ClassifyListingPage(html, "Profitable Amazon FBA Brand")
	if got != VerificationLive {
		t.Errorf("Expected live despite incidental 404 in asset path, got %q", got)
	}
}

func TestClassifyListingPageLiveByMarker(t *testing.T) {
	html := padHTML("<span>Asking Price: $499,000</span>")

	got := ClassifyListingPage(html, "Some Other Business Name")
	if got != VerificationLive {
		t.Errorf("Expected live for asking-price boilerplate, got %q", got)
	}
}

func TestClassifyListingPagePending(t *testing.T) {
	html := padHTML("<p>Welcome to our marketplace homepage.</p>")

	got := ClassifyListingPage(html, "Profitable Amazon FBA Brand")
	if got != VerificationPending {
		t.Errorf("Expected pending for unrelated page, got %q", got)
	}
}

func TestClassifyListingPageRemovedBeatsName(t *testing.T) {
	// Removal markers are checked first so a "no longer available" banner on
	// the listing's own page still counts as removed.
	html := padHTML("<h1>Profitable Amazon FBA Brand</h1><p>This listing is no longer available.</p>")

	got := ClassifyListingPage(html, "Profitable Amazon FBA Brand")
	if got != VerificationRemoved {
		t.Errorf("Expected removed to win over name match, got %q", got)
	}
}
