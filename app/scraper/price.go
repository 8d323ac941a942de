package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// Asking prices outside this range are treated as parse noise (per-month
	// figures, phone numbers, listing IDs picked up by loose selectors).
	minPrice = 1_000
	maxPrice = 50_000_000
)

var priceRe = regexp.MustCompile(`\$[\d,]+(?:\.\d{1,2})?[kmKM]?`)

var revenueRe = regexp.MustCompile(`(?i)revenue[^$]{0,40}(\$[\d,]+(?:\.\d{1,2})?[kmKM]?)`)

// ParsePrice extracts the first dollar amount from text and returns it in
// whole dollars, scaling k/m suffixes. Returns 0 when no amount is found.
func ParsePrice(text string) int64 {
	match := priceRe.FindString(text)
	if match == "" {
		return 0
	}

	multiplier := int64(1)
	switch match[len(match)-1] {
	case 'k', 'K':
		multiplier = 1_000
		match = match[:len(match)-1]
	case 'm', 'M':
		multiplier = 1_000_000
		match = match[:len(match)-1]
	}

	cleaned := strings.NewReplacer("$", "", ",", "").Replace(match)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}

	return int64(value * float64(multiplier))
}

// ValidPrice reports whether a parsed price falls inside the accepted range.
func ValidPrice(price int64) bool {
	return price >= minPrice && price <= maxPrice
}

// ParseRevenue looks for a dollar amount in a revenue-labelled context.
// Returns 0 when the text carries no recognizable revenue figure.
func ParseRevenue(text string) int64 {
	match := revenueRe.FindStringSubmatch(text)
	if match == nil {
		return 0
	}

	revenue := ParsePrice(match[1])
	if !ValidPrice(revenue) {
		return 0
	}

	return revenue
}
