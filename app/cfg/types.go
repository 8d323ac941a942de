package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Scraping configuration
	ScraperAPIKey     string
	SitesDir          string
	WorkerCount       int
	SchedulerInterval int
	ScrapeCooldown    int
	VerifyInterval    int
	VerifyBatchSize   int

	// HTTP server configuration
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
