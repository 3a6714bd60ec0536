package pipeline

import (
	"errors"
	"time"
)

var (
	// ErrInFlight is returned by Process when the folder is already running.
	ErrInFlight = errors.New("folder already in flight")
	// ErrAlreadyDone is returned by Process for folders the ledger knows.
	ErrAlreadyDone = errors.New("folder already minted")
)

// Task is a snapshot of one folder's progress.
type Task struct {
	Folder       string    `json:"folder"`
	Path         string    `json:"path"`
	State        State     `json:"state"`
	RequestID    string    `json:"request_id,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Stats are the run counters. They only grow for the life of the process.
type Stats struct {
	TotalProcessed int       `json:"total_processed"`
	TotalMinted    int       `json:"total_minted"`
	Errors         int       `json:"errors"`
	StartedAt      time.Time `json:"started_at"`
}

// Uptime returns how long the controller has been running at now.
func (s Stats) Uptime(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}
