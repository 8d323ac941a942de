package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dealcomb/dealcomb/app/scraper"
	"github.com/dealcomb/dealcomb/app/sites"
)

type ScrapeSiteTask struct {
	Task
	SiteConfig *sites.Config
	runner     *scraper.Runner
}

func NewScrapeSiteTask(siteName string, siteConfig *sites.Config, runner *scraper.Runner) *ScrapeSiteTask {
	return &ScrapeSiteTask{
		Task:       NewTask(TaskTypeScrapeSite, siteName),
		SiteConfig: siteConfig,
		runner:     runner,
	}
}

func (t *ScrapeSiteTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SiteConfig.Settings.Enabled {
		slog.Debug("Site disabled, skipping", "site", t.SiteName)
		return nil
	}

	result, err := t.runner.ScrapeSite(ctx, t.SiteConfig, 0)
	if err != nil {
		// The gate is shared with manual scrapes; a busy gate is a deferral,
		// not a failure. The site stays due and is re-enqueued on a later tick.
		if errors.Is(err, scraper.ErrCooldownActive) || errors.Is(err, scraper.ErrScrapeInProgress) {
			slog.Debug("Scrape gate busy, deferring site", "site", t.SiteName)
			return nil
		}
		return err
	}

	if result.Err != "" {
		return fmt.Errorf("site scrape failed: %s", result.Err)
	}

	slog.Info("Task completed",
		"type", "ScrapeSite",
		"site", t.SiteName,
		"duration", t.GetDuration(),
		"found", result.ListingsFound,
		"saved", result.ListingsSaved,
		"duplicates", result.DuplicatesSkipped)

	return nil
}
