package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dealcomb/dealcomb/app/cfg"
	"github.com/dealcomb/dealcomb/app/database"
	"github.com/dealcomb/dealcomb/app/scraper"
	"github.com/dealcomb/dealcomb/app/sites"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const enrichInterval = 15 * time.Minute

type Scheduler struct {
	configCache *sites.ConfigCache
	siteRepo    database.SiteRepository
	listingRepo database.ListingRepository
	runner      *scraper.Runner
	fetcher     scraper.Fetcher

	interval        time.Duration
	workerCount     int
	verifyInterval  time.Duration
	verifyBatchSize int

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface

	mu           sync.Mutex
	paused       bool
	running      bool
	nextVerifyAt time.Time
	nextEnrichAt time.Time
}

func NewScheduler(configCache *sites.ConfigCache, siteRepo database.SiteRepository,
	listingRepo database.ListingRepository, runner *scraper.Runner,
	fetcher scraper.Fetcher) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		configCache:     configCache,
		siteRepo:        siteRepo,
		listingRepo:     listingRepo,
		runner:          runner,
		fetcher:         fetcher,
		interval:        time.Duration(c.SchedulerInterval) * time.Second,
		workerCount:     c.WorkerCount,
		verifyInterval:  time.Duration(c.VerifyInterval) * time.Second,
		verifyBatchSize: c.VerifyBatchSize,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	s.running = true
	s.nextVerifyAt = time.Now()
	s.nextEnrichAt = time.Now().Add(enrichInterval)
	s.mu.Unlock()

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Pause stops the scheduler from enqueueing new scrape tasks. Queued and
// in-flight tasks still complete; verification keeps its own cadence.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SchedulerStatus{
		Running:      s.running,
		Paused:       s.paused,
		WorkerCount:  s.workerCount,
		QueuedTasks:  len(s.taskQueue),
		ScrapeBusy:   s.runner.Busy(),
		LastScrapeAt: s.runner.LastRunAt(),
		NextVerifyAt: s.nextVerifyAt,
		NextEnrichAt: s.nextEnrichAt,
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	siteConfigs := s.configCache.GetConfigs()
	if len(siteConfigs) == 0 {
		slog.Debug("No site configurations found")
		return
	}

	slog.Debug("Registering site configurations", "count", len(siteConfigs))

	for _, siteConfig := range siteConfigs {
		syncTask := NewSyncSiteConfigTask(siteConfig.Name, siteConfig, s.siteRepo)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncSiteConfigTask", "site", siteConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	s.enqueueScrapeTasks()
	s.enqueueMaintenanceTasks()
}

func (s *Scheduler) enqueueScrapeTasks() {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()

	if paused {
		slog.Debug("Background scraping paused, skipping scrape tasks")
		return
	}

	// The cooldown gate is shared with manual scrapes triggered via the API.
	if s.runner.Busy() {
		slog.Debug("Scrape in progress or cooldown active, skipping scrape tasks")
		return
	}

	siteConfigs := s.configCache.GetEnabledConfigs()
	if len(siteConfigs) == 0 {
		slog.Debug("No enabled site configurations found")
		return
	}

	for _, siteConfig := range siteConfigs {
		site, err := s.siteRepo.GetSite(siteConfig.Name)
		if err != nil {
			slog.Warn("Failed to get site from database, skipping", "site", siteConfig.Name, "error", err)
			continue
		}
		if site == nil {
			slog.Warn("Site not found in database, skipping", "site", siteConfig.Name)
			continue
		}

		now := time.Now().UTC()
		if site.NextScrapeAt != nil && site.NextScrapeAt.After(now) {
			slog.Debug("Site not due for scraping yet", "site", siteConfig.Name, "next_scrape_at", site.NextScrapeAt)
			continue
		}

		scrapeTask := NewScrapeSiteTask(siteConfig.Name, siteConfig, s.runner)
		if err := s.EnqueueTask(scrapeTask); err != nil {
			slog.Warn("Failed to enqueue ScrapeSiteTask", "site", siteConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueMaintenanceTasks() {
	now := time.Now()

	s.mu.Lock()
	verifyDue := !now.Before(s.nextVerifyAt)
	enrichDue := !now.Before(s.nextEnrichAt)
	if verifyDue {
		s.nextVerifyAt = now.Add(s.verifyInterval)
	}
	if enrichDue {
		s.nextEnrichAt = now.Add(enrichInterval)
	}
	s.mu.Unlock()

	if verifyDue {
		verifyTask := NewVerifyListingsTask(s.listingRepo, s.fetcher, s.verifyBatchSize)
		if err := s.EnqueueTask(verifyTask); err != nil {
			slog.Warn("Failed to enqueue VerifyListingsTask", "error", err)
		}
	}

	if enrichDue {
		enrichTask := NewEnrichListingsTask(s.listingRepo, s.fetcher)
		if err := s.EnqueueTask(enrichTask); err != nil {
			slog.Warn("Failed to enqueue EnrichListingsTask", "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "site", task.GetSiteName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
