package api

import (
	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/fetch"
	"github.com/dealcomb/dealcomb/app/scraper"
	"github.com/dealcomb/dealcomb/app/sites"
	"github.com/dealcomb/dealcomb/app/tasks"
)

// CacheController is the slice of the fetch client the handlers need for the
// admin cache endpoint and the health report.
type CacheController interface {
	ClearMemoryCache()
	ProxyConfigured() bool
}

var _ CacheController = (*fetch.Client)(nil)

type Handler struct {
	configCache  *sites.ConfigCache
	listingRepo  database.ListingRepository
	pageRepo     database.PageRepository
	favoriteRepo database.FavoriteRepository
	runRepo      database.RunRepository
	siteRepo     database.SiteRepository
	runner       *scraper.Runner
	cache        CacheController
	scheduler    tasks.TaskSchedulerInterface
}
