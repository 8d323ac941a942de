package tasks

import (
	"context"
	"log/slog"

	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/scraper"
)

const enrichBatchSize = 10

// EnrichListingsTask fetches each stored listing's own detail page and
// replaces the index-page snippet with the full extracted description.
type EnrichListingsTask struct {
	Task
	listingRepo database.ListingRepository
	fetcher     scraper.Fetcher
	extractor   *scraper.DescriptionExtractor
}

func NewEnrichListingsTask(listingRepo database.ListingRepository, fetcher scraper.Fetcher) *EnrichListingsTask {
	return &EnrichListingsTask{
		Task:        NewTask(TaskTypeEnrichListings, ""),
		listingRepo: listingRepo,
		fetcher:     fetcher,
		extractor:   scraper.NewDescriptionExtractor(),
	}
}

func (t *EnrichListingsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	listings, err := t.listingRepo.GetListingsForEnrichment(enrichBatchSize)
	if err != nil {
		return err
	}

	if len(listings) == 0 {
		slog.Debug("No listings need enrichment")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, listing := range listings {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.enrichListing(ctx, listing); err != nil {
			slog.Error("Failed to enrich listing", "listing_id", listing.ID, "url", listing.OriginalURL, "error", err)
			errorCount++

			updateErr := t.listingRepo.UpdateEnrichedDescription(listing.ID, "", "failed", err.Error())
			if updateErr != nil {
				slog.Error("Failed to update enrichment status", "listing_id", listing.ID, "error", updateErr)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", "EnrichListings",
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *EnrichListingsTask) enrichListing(ctx context.Context, listing database.Listing) error {
	html, err := t.fetcher.Fetch(ctx, listing.OriginalURL)
	if err != nil {
		return err
	}

	description, err := t.extractor.Run(html)
	if err != nil {
		return err
	}

	return t.listingRepo.UpdateEnrichedDescription(listing.ID, description, "success", "")
}
