package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/sites"
)

type SyncSiteConfigTask struct {
	Task
	SiteConfig *sites.Config
	siteRepo   database.SiteRepository
}

func NewSyncSiteConfigTask(siteName string, siteConfig *sites.Config, siteRepo database.SiteRepository) *SyncSiteConfigTask {
	return &SyncSiteConfigTask{
		Task:       NewTask(TaskTypeSyncSiteConfig, siteName),
		SiteConfig: siteConfig,
		siteRepo:   siteRepo,
	}
}

func (t *SyncSiteConfigTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.siteRepo.UpsertSite(t.SiteConfig.Name, t.SiteConfig.BaseURL)
	if err != nil {
		slog.Error("Task failed", "type", "SyncSiteConfig", "site", t.SiteName, "error", err)
		return fmt.Errorf("failed to sync site config to database: %w", err)
	}

	if err := t.siteRepo.SetSiteEnabled(t.SiteConfig.Name, t.SiteConfig.Settings.Enabled); err != nil {
		return fmt.Errorf("failed to sync site enabled flag: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSiteConfig",
		"site", t.SiteName,
		"duration", t.GetDuration())

	return nil
}
