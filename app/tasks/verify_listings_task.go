package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/scraper"
)

const (
	// Listings verified within this window are left alone.
	verificationStaleness = 24 * time.Hour

	// Pause between per-listing checks to avoid hammering target sites.
	verificationDelay = 2 * time.Second
)

// VerifyListingsTask re-checks whether previously scraped listings are still
// live on their source marketplace, flipping verification_status and
// is_active accordingly.
type VerifyListingsTask struct {
	Task
	listingRepo database.ListingRepository
	fetcher     scraper.Fetcher
	batchSize   int
}

func NewVerifyListingsTask(listingRepo database.ListingRepository, fetcher scraper.Fetcher, batchSize int) *VerifyListingsTask {
	return &VerifyListingsTask{
		Task:        NewTask(TaskTypeVerifyListings, ""),
		listingRepo: listingRepo,
		fetcher:     fetcher,
		batchSize:   batchSize,
	}
}

func (t *VerifyListingsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	staleBefore := time.Now().UTC().Add(-verificationStaleness)
	listings, err := t.listingRepo.GetListingsForVerification(staleBefore, t.batchSize)
	if err != nil {
		return err
	}

	if len(listings) == 0 {
		slog.Debug("No listings due for verification")
		return nil
	}

	liveCount := 0
	removedCount := 0
	pendingCount := 0

	for i, listing := range listings {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status := t.verifyListing(ctx, listing)
		switch status {
		case scraper.VerificationLive:
			liveCount++
		case scraper.VerificationRemoved:
			removedCount++
		default:
			pendingCount++
		}

		isActive := status != scraper.VerificationRemoved
		err := t.listingRepo.UpdateVerificationStatus(listing.ID, status, isActive, time.Now().UTC())
		if err != nil {
			slog.Error("Failed to update verification status", "listing_id", listing.ID, "error", err)
		}

		if i < len(listings)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(verificationDelay):
			}
		}
	}

	slog.Info("Task completed",
		"type", "VerifyListings",
		"duration", t.GetDuration(),
		"checked", len(listings),
		"live", liveCount,
		"removed", removedCount,
		"pending", pendingCount)

	return nil
}

func (t *VerifyListingsTask) verifyListing(ctx context.Context, listing database.Listing) string {
	html, err := t.fetcher.Fetch(ctx, listing.OriginalURL)
	if err != nil {
		slog.Debug("Verification fetch failed", "listing_id", listing.ID, "url", listing.OriginalURL, "error", err)
		return scraper.VerificationPending
	}

	return scraper.ClassifyListingPage(html, listing.Name)
}
