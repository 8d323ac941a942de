package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/scraper"
	"github.com/dealcomb/dealcomb/app/sites"
	"github.com/dealcomb/dealcomb/app/tasks"
	"github.com/gin-gonic/gin"
)

// scrapeDeadline bounds a manually triggered run; work past it is abandoned
// and the caller gets a timeout.
const scrapeDeadline = 60 * time.Second

func NewHandler(configCache *sites.ConfigCache, listingRepo database.ListingRepository,
	pageRepo database.PageRepository, favoriteRepo database.FavoriteRepository,
	runRepo database.RunRepository, siteRepo database.SiteRepository,
	runner *scraper.Runner, cache CacheController,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		configCache:  configCache,
		listingRepo:  listingRepo,
		pageRepo:     pageRepo,
		favoriteRepo: favoriteRepo,
		runRepo:      runRepo,
		siteRepo:     siteRepo,
		runner:       runner,
		cache:        cache,
		scheduler:    scheduler,
	}
}

type scrapeRequest struct {
	Method          string   `json:"method"`
	SelectedSites   []string `json:"selectedSites"`
	MaxPagesPerSite int      `json:"maxPagesPerSite"`
}

func (h *Handler) PostScrape(c *gin.Context) {
	// An empty body is a valid "scrape everything" request.
	var req scrapeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), scrapeDeadline)
	defer cancel()

	result, err := h.runner.RunAll(ctx, scraper.RunOptions{
		Sites:           req.SelectedSites,
		MaxPagesPerSite: req.MaxPagesPerSite,
		Parallel:        req.Method == "parallel",
	})

	if err != nil {
		if errors.Is(err, scraper.ErrCooldownActive) || errors.Is(err, scraper.ErrScrapeInProgress) {
			// Inside the cooldown window a scrape is a deliberate no-op, not
			// a failure: clients poll this endpoint.
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"count":   0,
				"message": "Scrape skipped: cooldown active or scrape already in progress",
			})
			return
		}
		slog.Error("Scrape run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	if ctx.Err() != nil {
		c.JSON(http.StatusRequestTimeout, gin.H{
			"success": false,
			"error":   "Scrape timed out",
			"logs":    result.Logs,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"count":             result.TotalSaved,
		"totalFound":        result.TotalFound,
		"totalSaved":        result.TotalSaved,
		"duplicatesSkipped": result.DuplicatesSkipped,
		"siteBreakdown":     result.SiteBreakdown,
		"logs":              result.Logs,
		"errors":            result.Errors,
	})
}

func (h *Handler) ClearListings(c *gin.Context) {
	deleted, err := h.listingRepo.DeleteAllListings()
	if err != nil {
		slog.Error("Database error", "operation", "delete_listings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	slog.Info("All listings cleared", "deleted", deleted)
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

func (h *Handler) ClearCache(c *gin.Context) {
	deleted, err := h.pageRepo.DeleteAllPages()
	if err != nil {
		slog.Error("Database error", "operation", "delete_pages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Database error"})
		return
	}

	h.cache.ClearMemoryCache()

	slog.Info("Page cache cleared", "deleted", deleted)
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

func (h *Handler) StartScraping(c *gin.Context) {
	h.scheduler.Resume()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Background scraping resumed"})
}

func (h *Handler) StopScraping(c *gin.Context) {
	h.scheduler.Pause()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Background scraping paused"})
}

func (h *Handler) GetScrapingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":                 "OK",
		"timestamp":              time.Now().In(time.Local).Format(time.RFC3339),
		"scraper_api_configured": h.cache.ProxyConfigured(),
		"loaded_configurations":  h.configCache.GetConfigCount(),
	}

	if listingCount, err := h.listingRepo.GetListingCount(); err == nil {
		health["listings"] = listingCount
	}

	if siteCount, err := h.siteRepo.GetSiteCount(); err == nil {
		health["sites"] = siteCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.listingRepo.GetListingStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_listing_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := map[string]interface{}{
		"listings": map[string]interface{}{
			"total":   stats.Total,
			"active":  stats.Active,
			"live":    stats.Live,
			"removed": stats.Removed,
			"pending": stats.Pending,
		},
	}

	if pageCount, err := h.pageRepo.GetPageCount(); err == nil {
		response["cached_pages"] = pageCount
	}

	if runs, err := h.runRepo.GetRecentRuns(10); err == nil {
		recent := make([]map[string]interface{}, 0, len(runs))
		for _, run := range runs {
			recent = append(recent, runInfo(run))
		}
		response["recent_runs"] = recent
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) ListListings(c *gin.Context) {
	query := database.ListingQuery{
		Source:     c.Query("source"),
		Industry:   c.Query("industry"),
		MinPrice:   queryInt64(c, "min_price"),
		MaxPrice:   queryInt64(c, "max_price"),
		ActiveOnly: c.Query("active") != "false",
		Limit:      int(queryInt64(c, "limit")),
		Offset:     int(queryInt64(c, "offset")),
	}

	if query.Limit <= 0 || query.Limit > 200 {
		query.Limit = 50
	}

	listings, err := h.listingRepo.GetListings(query)
	if err != nil {
		slog.Error("Database error", "operation", "get_listings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	results := make([]map[string]interface{}, 0, len(listings))
	for _, listing := range listings {
		results = append(results, listingInfo(listing))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"listings": results,
		"total":    len(results),
	})
}

func (h *Handler) GetListing(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing listing id parameter"})
		return
	}

	listing, err := h.listingRepo.GetListing(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_listing", "listing_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if listing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	c.JSON(http.StatusOK, listingInfo(*listing))
}

type favoriteRequest struct {
	ListingID string `json:"listing_id"`
	UserID    string `json:"user_id"`
	Notes     string `json:"notes"`
}

func (h *Handler) ListFavorites(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id parameter"})
		return
	}

	favorites, err := h.favoriteRepo.GetFavorites(userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_favorites", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	results := make([]map[string]interface{}, 0, len(favorites))
	for _, favorite := range favorites {
		results = append(results, favoriteInfo(favorite))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"favorites": results,
		"total":     len(results),
	})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.ListingID == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing_id and user_id are required"})
		return
	}

	favorite, err := h.favoriteRepo.AddFavorite(req.ListingID, req.UserID, req.Notes)
	if err != nil {
		slog.Error("Database error", "operation", "add_favorite", "listing_id", req.ListingID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, favoriteInfo(*favorite))
}

func (h *Handler) DeleteFavorite(c *gin.Context) {
	id := c.Param("id")
	userID := c.Query("user_id")
	if id == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing id or user_id parameter"})
		return
	}

	deleted, err := h.favoriteRepo.DeleteFavorite(id, userID)
	if err != nil {
		slog.Error("Database error", "operation", "delete_favorite", "favorite_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Favorite not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func listingInfo(listing database.Listing) map[string]interface{} {
	info := map[string]interface{}{
		"id":                  listing.ID,
		"name":                listing.Name,
		"description":         listing.Description,
		"asking_price":        listing.AskingPrice,
		"annual_revenue":      listing.AnnualRevenue,
		"industry":            listing.Industry,
		"location":            listing.Location,
		"source":              listing.Source,
		"highlights":          listing.Highlights,
		"original_url":        listing.OriginalURL,
		"status":              listing.Status,
		"is_active":           listing.IsActive,
		"verification_status": listing.VerificationStatus,
		"created_at":          listing.CreatedAt,
	}

	if listing.LastVerifiedAt != nil {
		info["last_verified_at"] = listing.LastVerifiedAt
	}

	return info
}

func favoriteInfo(favorite database.Favorite) map[string]interface{} {
	return map[string]interface{}{
		"id":         favorite.ID,
		"listing_id": favorite.ListingID,
		"user_id":    favorite.UserID,
		"notes":      favorite.Notes,
		"created_at": favorite.CreatedAt,
	}
}

func runInfo(run database.ScrapeRun) map[string]interface{} {
	info := map[string]interface{}{
		"id":                 run.ID,
		"site":               run.Site,
		"status":             run.Status,
		"started_at":         run.StartedAt,
		"pages_fetched":      run.PagesFetched,
		"listings_found":     run.ListingsFound,
		"listings_saved":     run.ListingsSaved,
		"duplicates_skipped": run.DuplicatesSkipped,
	}

	if run.FinishedAt != nil {
		info["finished_at"] = run.FinishedAt
	}
	if run.Error != "" {
		info["error"] = run.Error
	}

	return info
}

func queryInt64(c *gin.Context, key string) int64 {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}
