package scraper

import (
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"$1.5M", 1500000},
		{"$750K", 750000},
		{"$2m", 2000000},
		{"$45k", 45000},
		{"$1,250,000", 1250000},
		{"Asking Price: $499,000", 499000},
		{"$99,999.00", 99999},
		{"", 0},
		{"no price here", 0},
		{"price on request", 0},
	}

	for _, tt := range tests {
		got := ParsePrice(tt.input)
		if got != tt.expected {
			t.Errorf("ParsePrice(%q) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestParsePriceFirstMatchWins(t *testing.T) {
	got := ParsePrice("Asking $500,000 with $150,000 cash flow")
	if got != 500000 {
		t.Errorf("Expected first amount 500000, got %d", got)
	}
}

func TestValidPrice(t *testing.T) {
	tests := []struct {
		price    int64
		expected bool
	}{
		{1000, true},
		{50000000, true},
		{999, false},
		{50000001, false},
		{0, false},
		{499000, true},
	}

	for _, tt := range tests {
		got := ValidPrice(tt.price)
		if got != tt.expected {
			t.Errorf("ValidPrice(%d) = %v, expected %v", tt.price, got, tt.expected)
		}
	}
}

func TestParseRevenue(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"Annual revenue of $1.2M with strong margins", 1200000},
		{"Revenue: $350,000", 350000},
		{"Asking price $500,000, no financials disclosed", 0},
		{"", 0},
		// Out of bounds revenue is discarded.
		{"revenue of $100", 0},
	}

	for _, tt := range tests {
		got := ParseRevenue(tt.input)
		if got != tt.expected {
			t.Errorf("ParseRevenue(%q) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}
