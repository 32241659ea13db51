package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryDB records finished jobs in SQLite so past runs survive restarts.
// Live job state stays in memory; only terminal outcomes land here.
type HistoryDB struct {
	db *sql.DB
}

// NewHistoryDB opens (or creates) the job history database
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		prompt TEXT NOT NULL,
		quality TEXT NOT NULL,
		status TEXT NOT NULL,
		video_url TEXT,
		error TEXT,
		scene_count INTEGER,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &HistoryDB{db: db}, nil
}

// RecordJob saves the terminal outcome of a job
func (h *HistoryDB) RecordJob(jobID, prompt, quality, status, videoURL, errMsg string, sceneCount int) error {
	query := `
	INSERT INTO jobs (job_id, prompt, quality, status, video_url, error, scene_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := h.db.Exec(query, jobID, prompt, quality, status, videoURL, errMsg,
		sceneCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save job history: %v", err)
	}
	return nil
}

// ListJobs returns the most recent finished jobs
func (h *HistoryDB) ListJobs(limit int) ([]map[string]interface{}, error) {
	query := `
	SELECT job_id, prompt, quality, status, video_url, error, scene_count, created_at
	FROM jobs ORDER BY created_at DESC LIMIT ?
	`

	rows, err := h.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %v", err)
	}
	defer rows.Close()

	var jobs []map[string]interface{}

	for rows.Next() {
		var (
			jobID, prompt, quality, status, videoURL, errMsg string
			sceneCount                                       int
			createdAt                                        time.Time
		)

		if err := rows.Scan(&jobID, &prompt, &quality, &status, &videoURL, &errMsg, &sceneCount, &createdAt); err != nil {
			continue
		}

		jobs = append(jobs, map[string]interface{}{
			"job_id":      jobID,
			"prompt":      prompt,
			"quality":     quality,
			"status":      status,
			"video_url":   videoURL,
			"error":       errMsg,
			"scene_count": sceneCount,
			"created_at":  createdAt,
		})
	}

	return jobs, nil
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}
