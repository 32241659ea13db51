package storage

import (
	"path/filepath"
	"testing"
)

// TestHistoryRoundTrip checks terminal jobs are recorded and listed newest
// first
func TestHistoryRoundTrip(t *testing.T) {
	db, err := NewHistoryDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewHistoryDB: %v", err)
	}
	defer db.Close()

	if err := db.RecordJob("job-1", "circles", "low", "completed",
		"/jobs/job-1/output/final_video.mp4", "", 4); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}
	if err := db.RecordJob("job-2", "triangles", "high", "failed",
		"", "disk full", 0); err != nil {
		t.Fatalf("RecordJob: %v", err)
	}

	jobs, err := db.ListJobs(10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("ListJobs returned %d rows, want 2", len(jobs))
	}

	found := map[string]bool{}
	for _, j := range jobs {
		found[j["job_id"].(string)] = true
	}
	if !found["job-1"] || !found["job-2"] {
		t.Fatalf("missing recorded jobs: %v", found)
	}
}

// TestHistoryLimit checks the list limit is applied
func TestHistoryLimit(t *testing.T) {
	db, err := NewHistoryDB(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewHistoryDB: %v", err)
	}
	defer db.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := db.RecordJob(id, "p", "medium", "completed", "", "", 4); err != nil {
			t.Fatalf("RecordJob: %v", err)
		}
	}

	jobs, err := db.ListJobs(2)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("ListJobs returned %d rows, want 2", len(jobs))
	}
}
