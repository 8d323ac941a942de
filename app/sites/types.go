package sites

// Config describes one scrape target marketplace, loaded from a YAML file in
// the sites directory. The file name (without .yml) becomes the site name and
// the listing source identifier.
type Config struct {
	Name         string         // Derived from filename (without .yml extension)
	BaseURL      string         `yaml:"base_url"`
	ListingPages []string       `yaml:"listing_pages"`
	LinkFragment string         `yaml:"link_fragment"`
	FeedURL      string         `yaml:"feed_url"` // optional RSS/Atom listings feed
	Selectors    SelectorSet    `yaml:"selectors"`
	Settings     ConfigSettings `yaml:"settings"`
}

// SelectorSet holds ordered CSS selector candidate lists. Selectors are tried
// in order; see scraper.Extractor for the winning rule.
type SelectorSet struct {
	Container   []string `yaml:"container"`
	Name        []string `yaml:"name"`
	Price       []string `yaml:"price"`
	Link        []string `yaml:"link"`
	Description []string `yaml:"description"`
	Location    []string `yaml:"location"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxPages        int  `yaml:"max_pages"`
	PageDelay       int  `yaml:"page_delay"` // seconds between page fetches
	Timeout         int  `yaml:"timeout"`    // seconds
}
