package scraper

import (
	"strings"
	"testing"

	"github.com/dealcomb/dealcomb/app/sites"
)

func testSiteConfig() *sites.Config {
	return &sites.Config{
		Name:         "testmarket",
		BaseURL:      "https://example.com",
		LinkFragment: "/business/",
		Selectors: sites.SelectorSet{
			Container:   []string{"div.listing"},
			Name:        []string{"h3.title"},
			Price:       []string{"span.price"},
			Link:        []string{"a.details"},
			Description: []string{"p.summary"},
			Location:    []string{"span.location"},
		},
	}
}

const listingPageHTML = `<html><body>
<div class="listing">
  <h3 class="title">Profitable Amazon FBA Brand</h3>
  <span class="price">$1.5M</span>
  <p class="summary">Established e-commerce business with recurring revenue.</p>
  <span class="location">Austin, TX</span>
  <a class="details" href="/business/fba-brand-123">View</a>
</div>
<div class="listing">
  <h3 class="title">SaaS Platform for Dentists</h3>
  <span class="price">$750K</span>
  <p class="summary">Turnkey software operation.</p>
  <a class="details" href="https://example.com/business/saas-456">View</a>
</div>
<div class="listing">
  <h3 class="title">Local HVAC Service Company</h3>
  <span class="price">$425,000</span>
  <p class="summary">Seller financing available.</p>
  <a class="details" href="/business/hvac-789">View</a>
</div>
<div class="listing">
  <h3 class="title">Listing With No Detail Link</h3>
  <span class="price">$300,000</span>
  <a href="/contact-us">Contact</a>
</div>
</body></html>`

func TestExtractorRun(t *testing.T) {
	extractor := NewExtractor()

	candidates, stats, err := extractor.Run(listingPageHTML, testSiteConfig())
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}
	if stats.Matched != 4 {
		t.Errorf("Expected 4 matched elements, got %d", stats.Matched)
	}
	if stats.Skipped != 1 {
		t.Errorf("Expected 1 skipped element, got %d", stats.Skipped)
	}

	first := candidates[0]
	if first.Name != "Profitable Amazon FBA Brand" {
		t.Errorf("Expected name 'Profitable Amazon FBA Brand', got %q", first.Name)
	}
	if first.AskingPrice != 1500000 {
		t.Errorf("Expected asking price 1500000, got %d", first.AskingPrice)
	}
	if first.OriginalURL != "https://example.com/business/fba-brand-123" {
		t.Errorf("Relative link not resolved, got %q", first.OriginalURL)
	}
	if first.Industry != "E-Commerce" {
		t.Errorf("Expected industry E-Commerce, got %q", first.Industry)
	}
	if first.Location != "Austin, TX" {
		t.Errorf("Expected location 'Austin, TX', got %q", first.Location)
	}
	if first.Source != "testmarket" {
		t.Errorf("Expected source testmarket, got %q", first.Source)
	}
	if len(first.Highlights) == 0 {
		t.Error("Expected highlights to be derived")
	}

	second := candidates[1]
	if second.AskingPrice != 750000 {
		t.Errorf("Expected asking price 750000, got %d", second.AskingPrice)
	}
	if second.OriginalURL != "https://example.com/business/saas-456" {
		t.Errorf("Absolute link mangled, got %q", second.OriginalURL)
	}

	third := candidates[2]
	if third.AskingPrice != 425000 {
		t.Errorf("Expected asking price 425000, got %d", third.AskingPrice)
	}
}

func TestExtractorRejectsShortNames(t *testing.T) {
	html := `<html><body>
<div class="listing">
  <h3 class="title">ab</h3>
  <span class="price">$500,000</span>
  <a class="details" href="/business/short-name">View</a>
</div>
</body></html>`

	extractor := NewExtractor()
	candidates, stats, err := extractor.Run(html, testSiteConfig())
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 0 {
		t.Errorf("Expected short-named element to be rejected, got %d candidates", len(candidates))
	}
	if stats.Skipped != 1 {
		t.Errorf("Expected 1 skipped element, got %d", stats.Skipped)
	}
}

func TestExtractorRejectsLongNames(t *testing.T) {
	html := `<html><body>
<div class="listing">
  <h3 class="title">` + strings.Repeat("x", maxNameLength+1) + `</h3>
  <a class="details" href="/business/long-name">View</a>
</div>
</body></html>`

	extractor := NewExtractor()
	candidates, _, err := extractor.Run(html, testSiteConfig())
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 0 {
		t.Errorf("Expected long-named element to be rejected, got %d candidates", len(candidates))
	}
}

func TestExtractorAcceptsMultibyteNames(t *testing.T) {
	// Length limits count runes, not bytes; a 200-character accented name is
	// twice that in UTF-8 bytes and must still pass.
	name := strings.Repeat("é", maxNameLength)
	html := `<html><body>
<div class="listing">
  <h3 class="title">` + name + `</h3>
  <span class="price">$500,000</span>
  <a class="details" href="/business/boulangerie-42">View</a>
</div>
</body></html>`

	extractor := NewExtractor()
	candidates, _, err := extractor.Run(html, testSiteConfig())
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected multibyte name to be accepted, got %d candidates", len(candidates))
	}
	if candidates[0].Name != name {
		t.Error("Expected multibyte name to be preserved")
	}
}

func TestExtractorFallbackContainerSelector(t *testing.T) {
	// Only the second container selector matches; with fewer matches than the
	// win threshold it is still picked as the best candidate.
	cfg := testSiteConfig()
	cfg.Selectors.Container = []string{"div.nonexistent", "div.listing"}

	extractor := NewExtractor()
	candidates, _, err := extractor.Run(listingPageHTML, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 3 {
		t.Errorf("Expected 3 candidates from fallback selector, got %d", len(candidates))
	}
}

func TestExtractorNoContainerMatch(t *testing.T) {
	cfg := testSiteConfig()
	cfg.Selectors.Container = []string{"div.nonexistent"}

	extractor := NewExtractor()
	candidates, stats, err := extractor.Run(listingPageHTML, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 0 || stats.Matched != 0 {
		t.Errorf("Expected no candidates, got %d (matched %d)", len(candidates), stats.Matched)
	}
}

func TestExtractorOutOfBoundsPriceZeroed(t *testing.T) {
	html := `<html><body>
<div class="listing">
  <h3 class="title">Suspiciously Cheap Business</h3>
  <span class="price">$500</span>
  <a class="details" href="/business/cheap-1">View</a>
</div>
</body></html>`

	extractor := NewExtractor()
	candidates, _, err := extractor.Run(html, testSiteConfig())
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].AskingPrice != 0 {
		t.Errorf("Expected out-of-bounds price to be zeroed, got %d", candidates[0].AskingPrice)
	}
}
