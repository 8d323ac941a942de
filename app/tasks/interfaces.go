package tasks

import "time"

// SchedulerStatus is a point-in-time snapshot of the background scheduler,
// exposed through the scraping status endpoint.
type SchedulerStatus struct {
	Running       bool      `json:"running"`
	Paused        bool      `json:"paused"`
	WorkerCount   int       `json:"worker_count"`
	QueuedTasks   int       `json:"queued_tasks"`
	ScrapeBusy    bool      `json:"scrape_busy"`
	LastScrapeAt  time.Time `json:"last_scrape_at"`
	NextVerifyAt  time.Time `json:"next_verify_at"`
	NextEnrichAt  time.Time `json:"next_enrich_at"`
}

// TaskSchedulerInterface defines the interface for background task scheduling.
// Used by the main application and the HTTP API to manage task processing.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Pause()
	Resume()
	Status() SchedulerStatus
}
