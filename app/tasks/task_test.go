package tasks

import (
	"testing"
)

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeScrapeSite, "testmarket")

	if task.ID == "" {
		t.Error("Expected task ID to be set")
	}
	if task.Type != TaskTypeScrapeSite {
		t.Errorf("Expected type %q, got %q", TaskTypeScrapeSite, task.Type)
	}
	if task.SiteName != "testmarket" {
		t.Errorf("Expected site name 'testmarket', got %q", task.SiteName)
	}
	if task.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, task.MaxRetries)
	}
}

func TestTaskIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		task := NewTask(TaskTypeScrapeSite, "testmarket")
		if seen[task.ID] {
			t.Fatalf("Duplicate task ID generated: %s", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestTaskRetryLimit(t *testing.T) {
	task := NewTask(TaskTypeVerifyListings, "")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}
	if task.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("Expected retry count %d, got %d", DefaultMaxRetries, task.GetRetryCount())
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeScrapeSite, "testmarket")

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	task.Start()
	if task.GetDuration() < 0 {
		t.Error("Expected non-negative duration after start")
	}
}
